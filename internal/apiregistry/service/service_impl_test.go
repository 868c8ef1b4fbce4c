package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/mainservice/internal/apiregistry/domain"
	"github.com/smallbiznis/mainservice/internal/apiregistry/repository"
	"github.com/smallbiznis/mainservice/internal/apperror"
	auditdomain "github.com/smallbiznis/mainservice/internal/audit/domain"
	auditrepository "github.com/smallbiznis/mainservice/internal/audit/repository"
	auditservice "github.com/smallbiznis/mainservice/internal/audit/service"
	"github.com/smallbiznis/mainservice/internal/clock"
	"github.com/smallbiznis/mainservice/internal/config"
	"github.com/smallbiznis/mainservice/internal/filter"
	"github.com/smallbiznis/mainservice/internal/migration"
	obscontext "github.com/smallbiznis/mainservice/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupService(t *testing.T, repo domain.Repository) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	if repo == nil {
		repo = repository.Provide()
	}
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    repo,
		Clock:   clk,
		Listing: config.NewStaticListingConfigHolder(config.DefaultListingConfig()),
		Audit: auditservice.NewService(auditservice.Params{
			DB:    db,
			Log:   zap.NewNop(),
			GenID: node,
			Repo:  auditrepository.Provide(),
			Clock: clk,
		}),
	})
	return svc, db
}

func createReq(clientID int64, trigger, title string, isTest bool) domain.CreateRequest {
	return domain.CreateRequest{
		ClientID:        clientID,
		ClientName:      fmt.Sprintf("Client %d", clientID),
		Title:           title,
		NotifyCondition: domain.NotifyConditionHealthIndex,
		HealthStatus:    domain.HealthStatusRedOrOrange,
		IntegrationType: domain.IntegrationTypeGoogle,
		TriggerID:       trigger,
		IsTest:          isTest,
	}
}

func mustCreate(t *testing.T, svc domain.Service, req domain.CreateRequest) domain.Registration {
	t.Helper()
	reg, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	return reg
}

func TestCreateRejectsSecondActiveAPIForClientMode(t *testing.T) {
	svc, db := setupService(t, nil)
	ctx := context.Background()

	mustCreate(t, svc, createReq(7, "T1", "Foo", true))

	_, err := svc.Create(ctx, createReq(7, "T2", "Bar", true))
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "an active API already exists for this client in test mode", apperror.Message(err))

	var count int64
	require.NoError(t, db.Model(&domain.Registration{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateTriggerRules(t *testing.T) {
	svc, _ := setupService(t, nil)
	ctx := context.Background()

	mustCreate(t, svc, createReq(7, "T1", "Foo", true))

	_, err := svc.Create(ctx, createReq(8, "T1", "Bar", true))
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "trigger id already used by another client", apperror.Message(err))

	reg, err := svc.Create(ctx, createReq(7, "T1", "Bar", false))
	require.NoError(t, err)
	assert.True(t, reg.IsActive)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := setupService(t, nil)

	req := createReq(7, "T1", "Foo", true)
	req.HealthStatus = "PURPLE"
	_, err := svc.Create(context.Background(), req)
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrInvalidHealthStatus)
}

type blindRepo struct {
	domain.Repository
}

func (blindRepo) FindActiveMatching(context.Context, *gorm.DB, int64, string, string) ([]domain.Registration, error) {
	return nil, nil
}

func TestCreateMapsUniqueIndexViolationToConflict(t *testing.T) {
	svc, _ := setupService(t, blindRepo{Repository: repository.Provide()})

	mustCreate(t, svc, createReq(7, "T1", "Foo", true))

	_, err := svc.Create(context.Background(), createReq(9, "T9", "Foo", false))
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "API name already in use", apperror.Message(err))
}

func TestDeleteRetiresExistingIDs(t *testing.T) {
	svc, db := setupService(t, nil)
	ctx := context.Background()

	a := mustCreate(t, svc, createReq(1, "T1", "A", true))
	b := mustCreate(t, svc, createReq(2, "T2", "B", true))

	resp, err := svc.Delete(ctx, []snowflake.ID{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, "2 APIs deleted successfully", resp.Message)
	assert.ElementsMatch(t, []snowflake.ID{a.ID, b.ID}, resp.DeletedIDs)

	var stored domain.Registration
	require.NoError(t, db.First(&stored, "id = ?", a.ID).Error)
	assert.Equal(t, domain.StateRetired, stored.State())
	assert.False(t, stored.Status)

	// Retired titles and client modes are free again.
	mustCreate(t, svc, createReq(1, "T1", "A", true))
}

func TestDeleteUnknownIDs(t *testing.T) {
	svc, _ := setupService(t, nil)

	_, err := svc.Delete(context.Background(), []snowflake.ID{999})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Delete(context.Background(), nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdateMergesAndReplacesRelations(t *testing.T) {
	svc, db := setupService(t, nil)
	ctx := context.Background()

	req := createReq(7, "T1", "Foo", true)
	req.UnitRelations = []domain.UnitRelationInput{{UnitID: 10, UnitName: "Loja 10"}}
	reg := mustCreate(t, svc, req)

	title := "Foo v2"
	updated, err := svc.Update(ctx, reg.ID, domain.UpdateRequest{
		Title:         &title,
		UnitRelations: []domain.UnitRelationInput{{UnitID: 20, UnitName: "Loja 20"}, {UnitID: 21, UnitName: "Loja 21"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Foo v2", updated.Title)
	assert.Equal(t, reg.TriggerID, updated.TriggerID)

	var relations []domain.UnitRelation
	require.NoError(t, db.Where("api_registry_id = ?", reg.ID).Order("unit_id").Find(&relations).Error)
	require.Len(t, relations, 2)
	assert.Equal(t, int64(20), relations[0].UnitID)
}

func TestUpdateMissingRegistration(t *testing.T) {
	svc, _ := setupService(t, nil)

	_, err := svc.Update(context.Background(), snowflake.ID(42), domain.UpdateRequest{})
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "API registry with ID 42 not found", apperror.Message(err))
}

func TestUpdateEnableChecksClientMode(t *testing.T) {
	svc, _ := setupService(t, nil)
	ctx := context.Background()

	mustCreate(t, svc, createReq(7, "T1", "Foo", false))
	disabled := false
	second := createReq(7, "T2", "Bar", false)
	second.Status = &disabled
	reg := mustCreate(t, svc, second)

	enabled := true
	_, err := svc.Update(ctx, reg.ID, domain.UpdateRequest{Status: &enabled})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "an active API already exists for this client in production mode", apperror.Message(err))

	// Moving it to test mode first frees the slot.
	test := true
	_, err = svc.Update(ctx, reg.ID, domain.UpdateRequest{Status: &enabled, IsTest: &test})
	require.NoError(t, err)
}

func TestUpdateChecksTriggerAcrossClients(t *testing.T) {
	svc, db := setupService(t, nil)
	ctx := context.Background()

	mustCreate(t, svc, createReq(1, "X", "Alpha", false))
	reg := mustCreate(t, svc, createReq(2, "Y", "Beta", false))

	taken := "X"
	_, err := svc.Update(ctx, reg.ID, domain.UpdateRequest{TriggerID: &taken})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "trigger id already used by another client", apperror.Message(err))

	var stored domain.Registration
	require.NoError(t, db.First(&stored, "id = ?", reg.ID).Error)
	assert.Equal(t, "Y", stored.TriggerID)

	// Moving the row to the client that holds the trigger is allowed.
	owner := int64(1)
	test := true
	updated, err := svc.Update(ctx, reg.ID, domain.UpdateRequest{TriggerID: &taken, ClientID: &owner, IsTest: &test})
	require.NoError(t, err)
	assert.Equal(t, "X", updated.TriggerID)

	// A client change alone is checked against the row's current trigger.
	other := int64(3)
	_, err = svc.Update(ctx, reg.ID, domain.UpdateRequest{ClientID: &other})
	require.ErrorIs(t, err, apperror.ErrConflict)
}

func TestListFiltersAndSortsByFirstUnit(t *testing.T) {
	svc, _ := setupService(t, nil)
	ctx := context.Background()

	for i, unitID := range []int64{30, 10, 20} {
		req := createReq(int64(i+1), fmt.Sprintf("T%d", i), fmt.Sprintf("API %d", i), true)
		req.UnitRelations = []domain.UnitRelationInput{{UnitID: unitID, UnitName: fmt.Sprintf("Loja %d", unitID)}}
		mustCreate(t, svc, req)
	}
	mustCreate(t, svc, createReq(9, "T9", "Production", false))

	resp, err := svc.List(ctx, domain.ListRequest{IsTest: "true", OrderBy: "UNIT_ID", OrderDirection: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.TotalItems)
	require.Len(t, resp.Items, 3)
	for i := 1; i < len(resp.Items); i++ {
		assert.LessOrEqual(t, resp.Items[i-1].UnitRelations[0].UnitID, resp.Items[i].UnitRelations[0].UnitID)
	}

	resp, err = svc.List(ctx, domain.ListRequest{UnitIDs: filter.Values{"20"}})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "API 2", resp.Items[0].Title)

	resp, err = svc.List(ctx, domain.ListRequest{Limit: "2", Page: "2"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.TotalItems)
	assert.Len(t, resp.Items, 2)
}

func TestComboOptions(t *testing.T) {
	svc, _ := setupService(t, nil)
	ctx := context.Background()

	req := createReq(7, "T1", "Foo", true)
	req.UnitRelations = []domain.UnitRelationInput{{UnitID: 1, UnitName: "Loja 1"}}
	mustCreate(t, svc, req)
	mustCreate(t, svc, createReq(7, "T1", "Bar", false))

	opts, err := svc.ComboOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ClientOption{{ClientID: 7, ClientName: "Client 7"}}, opts.Clients)
	assert.Equal(t, []domain.UnitOption{{UnitID: 1, UnitName: "Loja 1"}}, opts.UnitRelations)
	assert.Equal(t, []string{"Foo", "Bar"}, opts.Titles)
	assert.Equal(t, []string{"T1"}, opts.TriggerIDs)
}

func TestChangesAreAudited(t *testing.T) {
	svc, db := setupService(t, nil)
	ctx := obscontext.WithUserID(context.Background(), "admin@diel")

	created, err := svc.Create(ctx, createReq(1, "trg-1", "Weather", false))
	require.NoError(t, err)
	title := "Weather v2"
	_, err = svc.Update(ctx, created.ID, domain.UpdateRequest{Title: &title})
	require.NoError(t, err)
	_, err = svc.Delete(context.Background(), []snowflake.ID{created.ID})
	require.NoError(t, err)

	logs, err := auditrepository.Provide().ListByTarget(context.Background(), db, "api_registry", created.ID.String())
	require.NoError(t, err)
	require.Len(t, logs, 3)

	assert.Equal(t, "api_registry.create", logs[0].Action)
	require.NotNil(t, logs[0].ActorID)
	assert.Equal(t, "admin@diel", *logs[0].ActorID)
	assert.Equal(t, string(auditdomain.ActorTypeUser), logs[0].ActorType)
	assert.Equal(t, "Weather", logs[0].Metadata["title"])

	assert.Equal(t, "api_registry.update", logs[1].Action)
	assert.Equal(t, "Weather v2", logs[1].Metadata["title"])

	assert.Equal(t, "api_registry.delete", logs[2].Action)
	assert.Equal(t, string(auditdomain.ActorTypeSystem), logs[2].ActorType)
	assert.Nil(t, logs[2].ActorID)
}
