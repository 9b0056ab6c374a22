package domain

// Quote is a standing offer to buy (Bid) or sell (Offer) one card of a suit.
type Quote struct {
	PlayerID string `json:"player_id"`
	Suit     Suit   `json:"suit"`
	Side     Side   `json:"side"`
	Price    int64  `json:"price"`
}

// Trade is an executed match between two players. Immutable once logged.
type Trade struct {
	Buyer  PlayerIdentity `json:"buyer"`
	Seller PlayerIdentity `json:"seller"`
	Suit   Suit           `json:"suit"`
	Price  int64          `json:"price"`
}
