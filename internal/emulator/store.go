package emulator

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var (
	// ErrNotFound is returned when an account, line item or item does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a composite key is already taken.
	ErrConflict = errors.New("record already exists")
)

// Bucket names.
const (
	bucketAccounts = "accounts"
	bucketOrder    = "order"
)

// Store persists accounts in bbolt. Listing order is insertion order.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path and initializes buckets.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{bucketAccounts, bucketOrder} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutAccount inserts or replaces an account. New accounts go to the end of the listing.
func (s *Store) PutAccount(a Account) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putAccount(tx, a)
	})
}

// GetAccount returns the account with the given id.
func (s *Store) GetAccount(id string) (Account, error) {
	var a Account
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		a, err = getAccount(tx, id)
		return err
	})
	return a, err
}

// ListAccounts returns up to limit accounts starting at offset, and the total count.
func (s *Store) ListAccounts(offset, limit int) ([]Account, int, error) {
	var out []Account
	var total int
	err := s.db.View(func(tx *bolt.Tx) error {
		order := tx.Bucket([]byte(bucketOrder))
		total = order.Stats().KeyN

		i := 0
		c := order.Cursor()
		for k, v := c.First(); k != nil && len(out) < limit; k, v = c.Next() {
			if i < offset {
				i++
				continue
			}
			a, err := getAccount(tx, string(v))
			if err != nil {
				return fmt.Errorf("listing account %s: %w", v, err)
			}
			out = append(out, a)
			i++
		}
		return nil
	})
	return out, total, err
}

// Count returns the number of stored accounts.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(bucketOrder)).Stats().KeyN
		return nil
	})
	return n, err
}

// AddLineItem attaches a line item, creating the account if needed.
// The (account, line item id) pair must be unique.
func (s *Store) AddLineItem(accountID, accountName string, li LineItem) error {
	return s.modify(accountID, accountName, func(a *Account) error {
		if a.lineItem(li.ID) >= 0 {
			return fmt.Errorf("line item %s on %s: %w", li.ID, accountID, ErrConflict)
		}
		a.LineItems = append(a.LineItems, li)
		return nil
	})
}

// SetLineItemPercentage updates a line item's percentage.
func (s *Store) SetLineItemPercentage(accountID, lineItemID string, pct json.Number) error {
	return s.modify(accountID, "", func(a *Account) error {
		i := a.lineItem(lineItemID)
		if i < 0 {
			return fmt.Errorf("line item %s on %s: %w", lineItemID, accountID, ErrNotFound)
		}
		a.LineItems[i].Percentage = pct
		return nil
	})
}

// DeleteLineItem removes a line item.
func (s *Store) DeleteLineItem(accountID, lineItemID string) error {
	return s.modify(accountID, "", func(a *Account) error {
		i := a.lineItem(lineItemID)
		if i < 0 {
			return fmt.Errorf("line item %s on %s: %w", lineItemID, accountID, ErrNotFound)
		}
		a.LineItems = append(a.LineItems[:i], a.LineItems[i+1:]...)
		return nil
	})
}

// AddItem attaches an item, creating the account if needed.
// The (account, code) pair must be unique.
func (s *Store) AddItem(accountID, accountName string, it Item) error {
	return s.modify(accountID, accountName, func(a *Account) error {
		if a.item(it.Code) >= 0 {
			return fmt.Errorf("item %s on %s: %w", it.Code, accountID, ErrConflict)
		}
		a.Items = append(a.Items, it)
		return nil
	})
}

// UpdateItem applies a partial update to an item.
func (s *Store) UpdateItem(accountID, code string, p ItemPatch) error {
	return s.modify(accountID, "", func(a *Account) error {
		i := a.item(code)
		if i < 0 {
			return fmt.Errorf("item %s on %s: %w", code, accountID, ErrNotFound)
		}
		if p.Name != nil {
			a.Items[i].Name = *p.Name
		}
		if p.TotalCost != nil {
			a.Items[i].TotalCost = *p.TotalCost
		}
		if p.TotalBase != nil {
			a.Items[i].TotalBase = *p.TotalBase
		}
		return nil
	})
}

// DeleteItem removes an item.
func (s *Store) DeleteItem(accountID, code string) error {
	return s.modify(accountID, "", func(a *Account) error {
		i := a.item(code)
		if i < 0 {
			return fmt.Errorf("item %s on %s: %w", code, accountID, ErrNotFound)
		}
		a.Items = append(a.Items[:i], a.Items[i+1:]...)
		return nil
	})
}

// modify runs fn on an account inside one transaction. A non-empty createName
// creates the account when it is missing; otherwise a missing account is ErrNotFound.
func (s *Store) modify(accountID, createName string, fn func(a *Account) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		a, err := getAccount(tx, accountID)
		if errors.Is(err, ErrNotFound) && createName != "" {
			a = Account{ID: accountID, Name: createName}
		} else if err != nil {
			return err
		}
		if err := fn(&a); err != nil {
			return err
		}
		return putAccount(tx, a)
	})
}

func getAccount(tx *bolt.Tx, id string) (Account, error) {
	data := tx.Bucket([]byte(bucketAccounts)).Get([]byte(id))
	if data == nil {
		return Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	var a Account
	if err := json.Unmarshal(data, &a); err != nil {
		return Account{}, fmt.Errorf("failed to unmarshal account %s: %w", id, err)
	}
	return a, nil
}

func putAccount(tx *bolt.Tx, a Account) error {
	if a.ID == "" {
		return errors.New("account id is required")
	}
	accounts := tx.Bucket([]byte(bucketAccounts))
	if accounts.Get([]byte(a.ID)) == nil {
		order := tx.Bucket([]byte(bucketOrder))
		seq, err := order.NextSequence()
		if err != nil {
			return err
		}
		if err := order.Put(itob(seq), []byte(a.ID)); err != nil {
			return err
		}
	}

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	return accounts.Put([]byte(a.ID), data)
}

// itob converts a sequence number to a big-endian bbolt key.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
