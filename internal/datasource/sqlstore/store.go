package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"fortio.org/safecast"
	"github.com/charmbracelet/listview/internal/csync"
	"github.com/charmbracelet/listview/internal/datasource"
	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/groups"
	"github.com/google/uuid"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store is a grouped data source whose items live in the items table,
// ordered by position.
type Store struct {
	db        *sql.DB
	listeners *csync.Map[string, datasource.Listener]
}

var (
	_ datasource.Source  = (*Store)(nil)
	_ datasource.Grouped = (*Store)(nil)
)

// New wraps a connected database.
func New(db *sql.DB) *Store {
	return &Store{db: db, listeners: csync.NewMap[string, datasource.Listener]()}
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Count implements datasource.Source.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return safecast.Convert[int](n)
}

func (s *Store) rows(ctx context.Context, q querier, from, to int) ([]datasource.Item, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, group_key, text, detail FROM items WHERE position >= ? AND position < ? ORDER BY position`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()
	var out []datasource.Item
	for rows.Next() {
		var it datasource.Item
		if err := rows.Scan(&it.Key, &it.Group, &it.Text, &it.Detail); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ItemsFromIndex implements datasource.Source.
func (s *Store) ItemsFromIndex(ctx context.Context, index, before, after int) (datasource.Result, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return datasource.Result{}, err
	}
	if err := entity.CheckIndex("itemsFromIndex", index, total); err != nil {
		return datasource.Result{}, err
	}
	lo := max(0, index-before)
	items, err := s.rows(ctx, s.db, lo, index+after+1)
	if err != nil {
		return datasource.Result{}, err
	}
	return datasource.Result{Items: items, Offset: index - lo, AbsoluteIndex: index, Total: total}, nil
}

// ItemsFromKey implements datasource.Source.
func (s *Store) ItemsFromKey(ctx context.Context, key string, before, after int) (datasource.Result, error) {
	var pos int64
	err := s.db.QueryRowContext(ctx, `SELECT position FROM items WHERE id = ?`, key).Scan(&pos)
	if errors.Is(err, sql.ErrNoRows) {
		return datasource.Result{}, fmt.Errorf("itemsFromKey %q: %w", key, entity.ErrKeyNotFound)
	}
	if err != nil {
		return datasource.Result{}, fmt.Errorf("lookup %q: %w", key, err)
	}
	index, err := safecast.Convert[int](pos)
	if err != nil {
		return datasource.Result{}, err
	}
	return s.ItemsFromIndex(ctx, index, before, after)
}

// Groups implements datasource.Grouped.
func (s *Store) Groups(ctx context.Context) ([]groups.Group, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT group_key FROM items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()
	var out []groups.Group
	i := 0
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		if n := len(out); n > 0 && out[n-1].Key == key {
			out[n-1].Count++
		} else {
			out = append(out, groups.Group{Key: key, Start: i, Count: 1, Header: key})
		}
		i++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 1 && out[0].Key == "" {
		return nil, nil
	}
	return out, nil
}

// Subscribe implements datasource.Source.
func (s *Store) Subscribe(l datasource.Listener) func() {
	id := uuid.NewString()
	s.listeners.Set(id, l)
	return func() { s.listeners.Del(id) }
}

func (s *Store) notify(edits ...edit.Edit) {
	if len(edits) == 0 {
		return
	}
	batch := len(edits) > 1
	for _, l := range s.listeners.Seq2() {
		if batch {
			l.BeginEdits()
		}
		for _, e := range edits {
			l.Notify(e)
		}
		if batch {
			l.EndEdits()
		}
	}
}

// ids returns every id in position order.
func ids(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM items ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// renumber writes positions for order[from:].
func renumber(ctx context.Context, tx *sql.Tx, order []string, from int) error {
	stmt, err := tx.PrepareContext(ctx, `UPDATE items SET position = ?, updated_at = strftime('%s', 'now') WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := from; i < len(order); i++ {
		if _, err := stmt.ExecContext(ctx, i, order[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) tx(ctx context.Context, fn func(tx *sql.Tx, order []string) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck
	order, err := ids(ctx, tx)
	if err != nil {
		return err
	}
	if err := fn(tx, order); err != nil {
		return err
	}
	return tx.Commit()
}

// Insert adds items at index at. Items without a key get a UUID. The keys
// actually used are returned.
func (s *Store) Insert(ctx context.Context, at int, items ...datasource.Item) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	keys := make([]string, len(items))
	err := s.tx(ctx, func(tx *sql.Tx, order []string) error {
		if at < 0 || at > len(order) {
			return entity.NewInvalidIndex("insert", at, len(order)+1)
		}
		for i, it := range items {
			keys[i] = it.Key
			if keys[i] == "" {
				keys[i] = uuid.NewString()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO items (id, position, group_key, text, detail) VALUES (?, ?, ?, ?, ?)`,
				keys[i], -1-i, it.Group, it.Text, it.Detail); err != nil {
				return fmt.Errorf("insert %q: %w", keys[i], err)
			}
		}
		order = slices.Insert(order, at, keys...)
		return renumber(ctx, tx, order, at)
	})
	if err != nil {
		return nil, err
	}
	s.notify(edit.InsertKeys(at, keys...).InGroups(datasource.GroupsOf(items)...))
	return keys, nil
}

// Remove deletes count items starting at at.
func (s *Store) Remove(ctx context.Context, at, count int) error {
	err := s.tx(ctx, func(tx *sql.Tx, order []string) error {
		if count <= 0 || at < 0 || at+count > len(order) {
			return entity.NewInvalidIndex("remove", at+max(count, 1)-1, len(order))
		}
		for _, id := range order[at : at+count] {
			if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
				return err
			}
		}
		return renumber(ctx, tx, slices.Delete(order, at, at+count), at)
	})
	if err != nil {
		return err
	}
	s.notify(edit.Remove(at, count))
	return nil
}

// Move relocates the item at from to index to.
func (s *Store) Move(ctx context.Context, from, to int) error {
	var group string
	err := s.tx(ctx, func(tx *sql.Tx, order []string) error {
		n := len(order)
		if from < 0 || from >= n || to < 0 || to >= n {
			return entity.NewInvalidIndex("move", max(from, to), n)
		}
		id := order[from]
		if err := tx.QueryRowContext(ctx, `SELECT group_key FROM items WHERE id = ?`, id).Scan(&group); err != nil {
			return err
		}
		order = slices.Delete(order, from, from+1)
		order = slices.Insert(order, to, id)
		return renumber(ctx, tx, order, min(from, to))
	})
	if err != nil {
		return err
	}
	s.notify(edit.Move(from, to).InGroup(group))
	return nil
}

// Change rewrites the text and detail of the item at index at.
func (s *Store) Change(ctx context.Context, at int, text, detail string) error {
	var key string
	err := s.tx(ctx, func(tx *sql.Tx, order []string) error {
		if err := entity.CheckIndex("change", at, len(order)); err != nil {
			return err
		}
		key = order[at]
		_, err := tx.ExecContext(ctx,
			`UPDATE items SET text = ?, detail = ?, updated_at = strftime('%s', 'now') WHERE id = ?`,
			text, detail, key)
		return err
	})
	if err != nil {
		return err
	}
	s.notify(edit.Edit{Op: edit.OpChange, At: at, Key: key})
	return nil
}

// Import replaces the whole table with items and notifies a reload.
func (s *Store) Import(ctx context.Context, items []datasource.Item) error {
	err := s.tx(ctx, func(tx *sql.Tx, _ []string) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
			return err
		}
		for i, it := range items {
			key := it.Key
			if key == "" {
				key = uuid.NewString()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO items (id, position, group_key, text, detail) VALUES (?, ?, ?, ?, ?)`,
				key, i, it.Group, it.Text, it.Detail); err != nil {
				return fmt.Errorf("import %q: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(edit.Reload())
	return nil
}
