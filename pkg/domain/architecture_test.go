package domain

import (
	"testing"

	"inventorycore/testutil"
)

// TestDomainDoesNotImportInfrastructure keeps the domain layer free of
// internal packages and transport or storage libraries.
func TestDomainDoesNotImportInfrastructure(t *testing.T) {
	forbidden := testutil.AnyOf(
		testutil.InternalImportForbidden,
		testutil.PrefixForbidden(
			"database/sql",
			"net/http",
			"github.com/labstack/",
			"github.com/jackc/",
			"modernc.org/",
			"github.com/rs/zerolog",
		),
	)
	testutil.AssertNoDirectImports(t, ".", forbidden, "domain must stay infrastructure free")
}
