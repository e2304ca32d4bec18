package model

import "time"

// Game represents a board game listed for sharing, as stored in the
// `games` table. Every game belongs to exactly one owner account;
// ownership drives who may approve borrow requests and close loans
// for the game.
//
// Fields:
//  ID             – primary key identifier.
//  OwnerAccountID – account that owns the physical copy.
//  Name           – title of the game.
//  Description    – free-form description.
//  MinPlayers     – minimum player count.
//  MaxPlayers     – maximum player count.
//  Available      – whether the game is currently lendable.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Game struct {
	ID             uint64    `json:"id"`               // games.id
	OwnerAccountID uint64    `json:"owner_account_id"` // games.owner_account_id
	Name           string    `json:"name"`             // games.name
	Description    string    `json:"description"`      // games.description
	MinPlayers     uint32    `json:"min_players"`      // games.min_players
	MaxPlayers     uint32    `json:"max_players"`      // games.max_players
	Available      bool      `json:"available"`        // games.available
	CreatedAt      time.Time `json:"created_at"`       // games.created_at
	UpdatedAt      time.Time `json:"updated_at"`       // games.updated_at
}
