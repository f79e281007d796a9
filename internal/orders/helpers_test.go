package orders

import (
	"testing"

	pkgerrors "github.com/openmercato/storefront-backend/pkg/errors"
)

func pkgErr(t *testing.T, err error) *pkgerrors.Error {
	t.Helper()

	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	return typed
}
