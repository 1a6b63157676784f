package registration_test

import (
	"context"
	"testing"

	"github.com/dropDatabas3/hellolti/internal/registration"
)

func seedRepo() *registration.MemoryRepository {
	return registration.NewMemoryRepository(&registration.Registration{
		ID:       "reg1",
		ClientID: "client-1",
		Platform: &registration.Platform{
			Name:     "moodle",
			Audience: "https://platform.example",
		},
		Tool: &registration.Tool{
			Name:     "quiz-tool",
			Audience: "https://tool.example",
		},
		DeploymentIDs: []string{"dep1", "dep2"},
	})
}

func TestMemoryRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repo := seedRepo()

	if _, err := repo.Find(ctx, "reg1"); err != nil {
		t.Fatalf("find: %v", err)
	}
	if _, err := repo.Find(ctx, "ghost"); err != registration.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := repo.FindByClientID(ctx, "client-1"); err != nil {
		t.Fatalf("by client id: %v", err)
	}
	reg, err := repo.FindByPlatformIssuer(ctx, "https://platform.example", "client-1")
	if err != nil {
		t.Fatalf("by issuer: %v", err)
	}
	if !reg.HasDeployment("dep2") || reg.HasDeployment("depX") {
		t.Fatalf("deployment membership broken")
	}
	if reg.DefaultDeploymentID() != "dep1" {
		t.Fatalf("default deployment: got %q", reg.DefaultDeploymentID())
	}
	if _, err := repo.FindByPlatformIssuer(ctx, "https://platform.example", "other-client"); err != registration.ErrNotFound {
		t.Fatalf("client mismatch must be not found, got %v", err)
	}
}

func TestMemoryRepository_Deployments(t *testing.T) {
	ctx := context.Background()
	deps := seedRepo().Deployments()

	dep, err := deps.Find(ctx, "dep1")
	if err != nil {
		t.Fatalf("find deployment: %v", err)
	}
	if dep.RegistrationID != "reg1" {
		t.Fatalf("registration link: got %q", dep.RegistrationID)
	}
	if _, err := deps.Find(ctx, "ghost"); err != registration.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	dep, err = deps.FindByIssuer(ctx, "https://platform.example", "client-1")
	if err != nil || dep.ID != "dep1" {
		t.Fatalf("by issuer: %v %+v", err, dep)
	}
}
