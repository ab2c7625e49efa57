package port

import "context"

// ReportStore persists generated report files
type ReportStore interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context, dir string) ([]string, error)
}
