package utils_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	tu "github.com/ShivaprasadMurashillin/LexDash/internal/testutil"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/utils"
)

func names(t *testing.T, q *gorm.DB) map[string]bool {
	t.Helper()
	var rows []models.Client
	if err := q.Find(&rows).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	out := map[string]bool{}
	for _, r := range rows {
		out[r.Name] = true
	}
	return out
}

func TestSearch(t *testing.T) {
	db := tu.OpenDB(t)
	tu.SeedClient(t, db, "Acme_Corp")
	tu.SeedClient(t, db, "AcmeXCorp")
	tu.SeedClient(t, db, "Globex")

	got := names(t, utils.Search(db.Model(&models.Client{}), "acme", "name"))
	if len(got) != 2 {
		t.Fatalf("case-insensitive: %v", got)
	}
	got = names(t, utils.Search(db.Model(&models.Client{}), "e_c", "name"))
	if len(got) != 1 || !got["Acme_Corp"] {
		t.Fatalf("underscore should match literally: %v", got)
	}
	got = names(t, utils.Search(db.Model(&models.Client{}).Where("name <> ?", "Globex"), "globex", "name", "email"))
	if len(got) != 0 {
		t.Fatalf("OR group must not escape outer condition: %v", got)
	}
	if got = names(t, utils.Search(db.Model(&models.Client{}), "  ", "name")); len(got) != 3 {
		t.Fatalf("blank term: %v", got)
	}
}

func TestFilterAndFilterIDs(t *testing.T) {
	db := tu.OpenDB(t)
	a := tu.SeedClient(t, db, "A")
	tu.SeedClient(t, db, "B")
	db.Model(&a).Update("status", models.ClientInactive)

	run := func(query string) (map[string]bool, error) {
		var out map[string]bool
		var ferr error
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error {
			q := utils.Filter(c, db.Model(&models.Client{}), "status", "status")
			q, ferr = utils.FilterIDs(c, q, "id", "id")
			if ferr == nil {
				out = names(t, q)
			}
			return nil
		})
		if _, err := app.Test(httptest.NewRequest("GET", "/"+query, nil), -1); err != nil {
			t.Fatal(err)
		}
		return out, ferr
	}

	if got, _ := run("?status=Inactive"); len(got) != 1 || !got["A"] {
		t.Fatalf("status filter: %v", got)
	}
	if got, _ := run("?id=" + a.ID.String() + "&status=Active"); len(got) != 0 {
		t.Fatalf("combined filters: %v", got)
	}
	if _, err := run("?id=nope"); err == nil {
		t.Fatal("expected invalid id error")
	} else if ae, ok := apperr.As(err); !ok || ae.Fields["id"][0] != "Invalid id format" {
		t.Fatalf("got %v", err)
	}
}
