package mock

import (
	"context"

	"github.com/jsliwa/docatlas"
)

var _ docatlas.RecordStore = (*RecordStore)(nil)

// RecordStore is a mock implementation of docatlas.RecordStore.
type RecordStore struct {
	FindRecordByURLFn func(ctx context.Context, url string) (*docatlas.ExtractionRecord, error)
	FindRecordsFn     func(ctx context.Context, filter docatlas.RecordFilter) ([]*docatlas.ExtractionRecord, error)
	SaveRecordFn      func(ctx context.Context, rec *docatlas.ExtractionRecord) error
}

func (s *RecordStore) FindRecordByURL(ctx context.Context, url string) (*docatlas.ExtractionRecord, error) {
	return s.FindRecordByURLFn(ctx, url)
}

func (s *RecordStore) FindRecords(ctx context.Context, filter docatlas.RecordFilter) ([]*docatlas.ExtractionRecord, error) {
	return s.FindRecordsFn(ctx, filter)
}

func (s *RecordStore) SaveRecord(ctx context.Context, rec *docatlas.ExtractionRecord) error {
	return s.SaveRecordFn(ctx, rec)
}
