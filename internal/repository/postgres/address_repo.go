package pgrepo

import (
	"context"

	"storefront-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type addressRepository struct {
	db *pgxpool.Pool
}

func NewAddressRepository(db *pgxpool.Pool) domain.AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) GetByID(ctx context.Context, id string) (*domain.Address, error) {
	var (
		a           domain.Address
		aid, userID pgtype.UUID
	)
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT id, user_id, full_name, phone_number, street, city, state, postal_code, country, created_at
		 FROM addresses WHERE id = $1`, stringToUUID(id)).
		Scan(&aid, &userID, &a.FullName, &a.PhoneNumber, &a.Street, &a.City, &a.State, &a.PostalCode, &a.Country, &a.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	a.ID = uuidToString(aid)
	a.UserID = uuidToString(userID)
	return &a, nil
}
