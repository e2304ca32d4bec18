package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/boardgameshare/server/internal/model"
)

// GameRepo provides CRUD operations for the games table. It also
// serves as the catalog consumed by the service engines: resolving a
// game answers who owns it.
type GameRepo struct{ DB *sql.DB }

// NewGameRepo returns a new GameRepo bound to the given database.
func NewGameRepo(db *sql.DB) *GameRepo { return &GameRepo{DB: db} }

const gameColumns = "id, owner_account_id, name, description, min_players, max_players, available, created_at, updated_at"

func scanGame(row interface{ Scan(...any) error }) (model.Game, error) {
	var g model.Game
	err := row.Scan(&g.ID, &g.OwnerAccountID, &g.Name, &g.Description,
		&g.MinPlayers, &g.MaxPlayers, &g.Available, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// Create inserts a game owned by the given account and populates the
// generated ID on the provided record.
func (r *GameRepo) Create(ctx context.Context, g *model.Game) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO games (owner_account_id, name, description, min_players, max_players, available) VALUES (?,?,?,?,?,?)",
		g.OwnerAccountID, g.Name, g.Description, g.MinPlayers, g.MaxPlayers, g.Available)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}

// GetByID fetches a game by id. Returns ErrNotFound when absent.
func (r *GameRepo) GetByID(ctx context.Context, id uint64) (model.Game, error) {
	g, err := scanGame(r.DB.QueryRowContext(ctx,
		"SELECT "+gameColumns+" FROM games WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Game{}, ErrNotFound
	}
	return g, err
}

// ResolveGame satisfies the service.Catalog interface.
func (r *GameRepo) ResolveGame(ctx context.Context, id uint64) (model.Game, error) {
	return r.GetByID(ctx, id)
}

// ListByOwner returns all games owned by the given account, newest first.
func (r *GameRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Game, error) {
	return r.list(ctx, "SELECT "+gameColumns+" FROM games WHERE owner_account_id=? ORDER BY created_at DESC", ownerID)
}

// ListAvailable returns all games currently marked lendable.
func (r *GameRepo) ListAvailable(ctx context.Context) ([]model.Game, error) {
	return r.list(ctx, "SELECT "+gameColumns+" FROM games WHERE available=1 ORDER BY name")
}

func (r *GameRepo) list(ctx context.Context, query string, args ...any) ([]model.Game, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	games := make([]model.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Update modifies a game's listing fields, restricted to its owner.
// Returns ErrNotFound when the game does not exist and ErrForbidden
// when it belongs to someone else.
func (r *GameRepo) Update(ctx context.Context, g *model.Game, ownerID uint64) error {
	if err := r.checkOwner(ctx, g.ID, ownerID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE games SET name=?, description=?, min_players=?, max_players=?, available=? WHERE id=?",
		g.Name, g.Description, g.MinPlayers, g.MaxPlayers, g.Available, g.ID)
	return err
}

// Delete removes a game, restricted to its owner. Games with open
// lending records cannot be deleted; the FK restriction surfaces as
// ErrConflict.
func (r *GameRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	if err := r.checkOwner(ctx, id, ownerID); err != nil {
		return err
	}
	var open int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM lending_records WHERE game_id=? AND status <> ?",
		id, model.LendingClosed).Scan(&open); err != nil {
		return err
	}
	if open > 0 {
		return ErrConflict
	}
	_, err := r.DB.ExecContext(ctx, "DELETE FROM games WHERE id=?", id)
	return err
}

func (r *GameRepo) checkOwner(ctx context.Context, id, ownerID uint64) error {
	var actual uint64
	err := r.DB.QueryRowContext(ctx, "SELECT owner_account_id FROM games WHERE id=?", id).Scan(&actual)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if actual != ownerID {
		return ErrForbidden
	}
	return nil
}
