package dto

// TokenRequest is the body of POST /api/v1/auth/token.
type TokenRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// TokenResponse carries an issued admin token.
type TokenResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"`
}

// PoolStatsResponse is the body of GET /api/v1/pool/stats.
type PoolStatsResponse struct {
	Available int  `json:"available"`
	Borrowed  int  `json:"borrowed"`
	Total     int  `json:"total"`
	MinSize   int  `json:"min_size"`
	MaxSize   int  `json:"max_size"`
	Unpooled  bool `json:"unpooled"`
}
