package validation_test

import (
	"context"
	"os"
	"testing"

	"github.com/goliatone/formflow/pkg/session"
	"github.com/goliatone/formflow/pkg/store"
	"github.com/goliatone/formflow/pkg/validation"
)

func TestFixtureService_YAMLDefinition(t *testing.T) {
	svc := validation.NewFixtureService(os.DirFS("testdata"))

	def, err := validation.LoadDefinition(context.Background(), svc, validation.FetchRequest{
		FormAPIName: "Benefit_Application",
	})
	if err != nil {
		t.Fatalf("load definition: %v", err)
	}
	if def.Name != "Benefit_Application" || def.MasterObject != "Case" {
		t.Fatalf("definition header wrong: %+v", def)
	}
	if len(def.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %+v", def.Sections)
	}

	household, ok := def.FindSection("Household Members")
	if !ok {
		t.Fatalf("customLabel key not honored: %+v", def.Sections)
	}
	if !household.HasConfiguredValidations {
		t.Fatal("yaml string boolean not coerced")
	}
	review, ok := def.FindSection("sec-review")
	if !ok || review.HasConfiguredValidations {
		t.Fatalf("review section wrong: %+v", review)
	}
}

func TestFixtureService_JSONSectionResult(t *testing.T) {
	st := store.NewMemory()
	defer st.Close()
	sess, err := session.New("001", "Benefit_Application", "Case", st)
	if err != nil {
		t.Fatalf("session: %v", err)
	}

	svc := validation.NewFixtureService(os.DirFS("testdata"))
	client := validation.NewSectionClient(svc)

	result := client.Validate(context.Background(), sess, "Household Members")
	if !result.Success || !result.HasErrors {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Pages[0].Label != "Household Members" {
		t.Fatalf("page label wrong: %+v", result.Pages[0])
	}
}

func TestFixtureService_MissingFixture(t *testing.T) {
	svc := validation.NewFixtureService(os.DirFS("testdata"))
	if _, err := svc.ValidatePage(context.Background(), validation.PageRequest{}); err == nil {
		t.Fatal("expected error for missing fixture")
	}
}
