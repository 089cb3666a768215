package controller

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/veloshop/storefront/internal/catalog"
	"github.com/veloshop/storefront/internal/docstore"
)

var (
	// ErrNotFound means no document with the requested id exists.
	ErrNotFound = errors.New("document not found")
	// ErrConflict means the mutation violates a business rule, e.g. an
	// order asking for more stock than a product has.
	ErrConflict = errors.New("conflict")
)

// Collection adapts one slice of the store document to generic CRUD
// operations. The closures tell it where its slice lives and how to read
// and assign document identity; hooks let a collection enforce rules that
// span the whole document.
type Collection[T any] struct {
	store    docstore.MutableStore
	validate *validator.Validate

	slice func(*catalog.StoreDocument) *[]T
	id    func(*T) string
	setID func(*T, string)

	// onWrite runs inside the store mutation before a create or update is
	// committed. Returning an error aborts the mutation.
	onWrite func(doc *catalog.StoreDocument, item *T) error
	// afterChange runs inside the store mutation after the slice changed,
	// for derived data such as category product counts.
	afterChange func(doc *catalog.StoreDocument) error
}

// NewCollection builds a collection service over the given slice accessor.
func NewCollection[T any](
	store docstore.MutableStore,
	validate *validator.Validate,
	slice func(*catalog.StoreDocument) *[]T,
	id func(*T) string,
	setID func(*T, string),
) *Collection[T] {
	return &Collection[T]{
		store:    store,
		validate: validate,
		slice:    slice,
		id:       id,
		setID:    setID,
	}
}

// WithWriteHook sets the pre-commit hook for creates and updates.
func (s *Collection[T]) WithWriteHook(fn func(*catalog.StoreDocument, *T) error) *Collection[T] {
	s.onWrite = fn
	return s
}

// WithAfterChange sets the post-mutation hook run on every successful
// create, update and delete.
func (s *Collection[T]) WithAfterChange(fn func(*catalog.StoreDocument) error) *Collection[T] {
	s.afterChange = fn
	return s
}

// All returns every document in the collection.
func (s *Collection[T]) All() ([]T, error) {
	doc, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return *s.slice(&doc), nil
}

// Create validates the item, assigns an id when missing and appends it.
func (s *Collection[T]) Create(item T) (T, error) {
	var zero T
	if s.id(&item) == "" {
		s.setID(&item, uuid.NewString())
	}
	if err := s.validate.Struct(item); err != nil {
		return zero, fmt.Errorf("%w: %v", errInvalid, err)
	}

	created := item
	_, err := s.store.Mutate(func(doc *catalog.StoreDocument) error {
		if s.onWrite != nil {
			if err := s.onWrite(doc, &created); err != nil {
				return err
			}
		}
		sl := s.slice(doc)
		*sl = append(*sl, created)
		if s.afterChange != nil {
			return s.afterChange(doc)
		}
		return nil
	})
	if err != nil {
		return zero, err
	}
	return created, nil
}

// Update replaces the document with the given id.
func (s *Collection[T]) Update(id string, item T) (T, error) {
	var zero T
	if id == "" {
		return zero, fmt.Errorf("%w: missing document id", errInvalid)
	}
	s.setID(&item, id)
	if err := s.validate.Struct(item); err != nil {
		return zero, fmt.Errorf("%w: %v", errInvalid, err)
	}

	updated := item
	_, err := s.store.Mutate(func(doc *catalog.StoreDocument) error {
		if s.onWrite != nil {
			if err := s.onWrite(doc, &updated); err != nil {
				return err
			}
		}
		sl := s.slice(doc)
		for i := range *sl {
			if s.id(&(*sl)[i]) == id {
				(*sl)[i] = updated
				if s.afterChange != nil {
					return s.afterChange(doc)
				}
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return zero, err
	}
	return updated, nil
}

// Delete removes the document with the given id.
func (s *Collection[T]) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing document id", errInvalid)
	}
	_, err := s.store.Mutate(func(doc *catalog.StoreDocument) error {
		sl := s.slice(doc)
		for i := range *sl {
			if s.id(&(*sl)[i]) == id {
				*sl = append((*sl)[:i], (*sl)[i+1:]...)
				if s.afterChange != nil {
					return s.afterChange(doc)
				}
				return nil
			}
		}
		return ErrNotFound
	})
	return err
}

// errInvalid marks validation and payload errors so handlers can map them
// to 400 responses.
var errInvalid = errors.New("invalid document")

// IsInvalid reports whether err is a validation or payload error.
func IsInvalid(err error) bool {
	return errors.Is(err, errInvalid)
}
