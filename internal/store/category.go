package store

import (
	"database/sql"
	"fmt"

	"github.com/hearthapp/hearth/internal/model"
)

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func scanCategory(scanner interface{ Scan(...any) error }) (*model.Category, error) {
	var c model.Category
	err := scanner.Scan(&c.ID, &c.HouseID, &c.Name, &c.Color, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const categoryCols = `id, house_id, name, color, created_at, updated_at`

func (s *CategoryStore) Create(houseID int64, name, color string) (*model.Category, error) {
	result, err := s.db.Exec(
		`INSERT INTO categories (house_id, name, color) VALUES (?, ?, ?)`,
		houseID, name, color,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

// GetByID looks a category up within its house; the house id is part of
// the key, so a category from another house reads as absent.
func (s *CategoryStore) GetByID(id, houseID int64) (*model.Category, error) {
	row := s.db.QueryRow(
		`SELECT `+categoryCols+` FROM categories WHERE id = ? AND house_id = ?`,
		id, houseID,
	)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *CategoryStore) ListByHouse(houseID int64) ([]model.Category, error) {
	rows, err := s.db.Query(
		`SELECT `+categoryCols+` FROM categories WHERE house_id = ? ORDER BY name ASC`,
		houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (s *CategoryStore) Update(id, houseID int64, name, color string) (*model.Category, error) {
	_, err := s.db.Exec(
		`UPDATE categories SET name = ?, color = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND house_id = ?`,
		name, color, id, houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return s.GetByID(id, houseID)
}

func (s *CategoryStore) Delete(id, houseID int64) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE id = ? AND house_id = ?`, id, houseID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
