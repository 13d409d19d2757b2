package dto

// VoteResponse reports the result of a vote toggle.
type VoteResponse struct {
	TargetKind string `json:"target_kind"`
	TargetID   uint   `json:"target_id"`
	Outcome    string `json:"outcome"`
	UserVote   int    `json:"user_vote"`
	Score      int64  `json:"score"`
}
