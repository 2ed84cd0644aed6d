// ABOUTME: Photo CRUD on the draft store
// ABOUTME: Uploaded photos swap their local payload for the remote URL
package draft

import (
	"fmt"
	"slices"

	"github.com/markahope-aag/hazardos-sub000/models"
)

// AddPhoto appends p, assigning an id and timestamp when missing, and returns the stored record.
func (s *Store) AddPhoto(p models.PhotoRecord) models.PhotoRecord {
	_ = s.mutate(func(d *models.SurveyDraft) error {
		if p.ID == "" {
			p.ID = s.newID()
		}
		if p.Timestamp.IsZero() {
			p.Timestamp = s.now()
		}
		d.Photos = append(d.Photos, p.Clone())
		return nil
	})
	return p.Clone()
}

// Photo returns the photo with the given id.
func (s *Store) Photo(id string) (models.PhotoRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.d.Photos {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return models.PhotoRecord{}, false
}

// Photos returns a copy of every photo in capture order.
func (s *Store) Photos() []models.PhotoRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PhotoRecord, len(s.d.Photos))
	for i, p := range s.d.Photos {
		out[i] = p.Clone()
	}
	return out
}

// UpdatePhoto merges metadata changes (category, location, caption) into a photo.
func (s *Store) UpdatePhoto(id string, fn func(p *models.PhotoRecord)) error {
	return s.mutate(func(d *models.SurveyDraft) error {
		i := slices.IndexFunc(d.Photos, func(p models.PhotoRecord) bool { return p.ID == id })
		if i < 0 {
			return fmt.Errorf("photo %s: %w", id, ErrNotFound)
		}
		fn(&d.Photos[i])
		d.Photos[i].ID = id
		return nil
	})
}

func (s *Store) RemovePhoto(id string) error {
	return s.mutate(func(d *models.SurveyDraft) error {
		n := len(d.Photos)
		d.Photos = slices.DeleteFunc(d.Photos, func(p models.PhotoRecord) bool { return p.ID == id })
		if len(d.Photos) == n {
			return fmt.Errorf("photo %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// MarkPhotoUploaded drops the local payload and keeps only the durable URL.
func (s *Store) MarkPhotoUploaded(id, url string) error {
	return s.UpdatePhoto(id, func(p *models.PhotoRecord) {
		p.Data = nil
		p.PreviewURL = url
	})
}

// MarkUploaded applies an upload to a draft that is not held by a Store, such as
// one read back from the local cache. It reports whether the photo was found.
func MarkUploaded(d *models.SurveyDraft, id, url string) bool {
	i := slices.IndexFunc(d.Photos, func(p models.PhotoRecord) bool { return p.ID == id })
	if i < 0 {
		return false
	}
	d.Photos[i].Data = nil
	d.Photos[i].PreviewURL = url
	return true
}
