package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/booking-sync/internal/owner"
)

// OwnerTable implements owner.Repository.
type OwnerTable struct {
	b *Backend
}

func (t *OwnerTable) find(match func(*owner.Owner) bool) (*owner.Owner, error) {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	for _, o := range t.b.owners {
		if match(o) {
			c := *o
			return &c, nil
		}
	}
	return nil, owner.ErrNotFound
}

func (t *OwnerTable) GetByEmail(ctx context.Context, email string) (*owner.Owner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.find(func(o *owner.Owner) bool { return o.Email == email })
}

func (t *OwnerTable) GetByID(ctx context.Context, id string) (*owner.Owner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.find(func(o *owner.Owner) bool { return o.ID == id })
}

func (t *OwnerTable) Create(ctx context.Context, o *owner.Owner) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.b.mu.Lock()
	defer t.b.mu.Unlock()

	for _, existing := range t.b.owners {
		if existing.Email == o.Email {
			return owner.ErrEmailAlreadyUsed
		}
	}
	o.ID = uuid.NewString()
	o.CreatedAt = t.b.now()
	c := *o
	t.b.owners = append(t.b.owners, &c)
	return nil
}

func (t *OwnerTable) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.b.mu.Lock()
	defer t.b.mu.Unlock()

	for _, o := range t.b.owners {
		if o.ID == id {
			o.LastLoginAt = &at
			return nil
		}
	}
	return owner.ErrNotFound
}
