package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/mainservice/internal/apiregistry/domain"
	"github.com/smallbiznis/mainservice/internal/filter"
)

type unitRelationRequest struct {
	UnitID   filter.Value `json:"unitId"`
	UnitName string       `json:"unitName"`
}

type createAPIRegistryRequest struct {
	ClientID        filter.Value          `json:"clientId"`
	ClientName      string                `json:"clientName"`
	Title           string                `json:"title"`
	UnitRelations   []unitRelationRequest `json:"unitRelations"`
	NotifyCondition string                `json:"notifyCondition"`
	HealthStatus    string                `json:"healthStatus"`
	IntegrationType string                `json:"integrationType"`
	TriggerID       string                `json:"triggerId"`
	IsTest          filter.Value          `json:"isTest"`
	Status          filter.Value          `json:"status"`
}

// updateAPIRegistryRequest distinguishes absent fields from zero values.
type updateAPIRegistryRequest struct {
	ClientID        *filter.Value          `json:"clientId"`
	ClientName      *string                `json:"clientName"`
	Title           *string                `json:"title"`
	UnitRelations   *[]unitRelationRequest `json:"unitRelations"`
	NotifyCondition *string                `json:"notifyCondition"`
	HealthStatus    *string                `json:"healthStatus"`
	IntegrationType *string                `json:"integrationType"`
	TriggerID       *string                `json:"triggerId"`
	IsTest          *filter.Value          `json:"isTest"`
	IsActive        *filter.Value          `json:"isActive"`
	Status          *filter.Value          `json:"status"`
}

type listAPIRegistriesRequest struct {
	ClientIDs       filter.Values `json:"clientIds"`
	ClientName      filter.Values `json:"clientName"`
	Title           filter.Values `json:"title"`
	UnitNames       filter.Values `json:"unitNames"`
	UnitIDs         filter.Values `json:"unitIds"`
	NotifyCondition filter.Values `json:"notifyCondition"`
	HealthStatus    filter.Values `json:"healthStatus"`
	IntegrationType filter.Values `json:"integrationType"`
	TriggerID       filter.Values `json:"triggerId"`
	IsTest          filter.Value  `json:"isTest"`
	Status          filter.Value  `json:"status"`
	OrderBy         filter.Value  `json:"orderBy"`
	OrderDirection  filter.Value  `json:"orderDirection"`
	Page            filter.Value  `json:"page"`
	Limit           filter.Value  `json:"limit"`
}

func (s *Server) CreateAPIRegistry(c *gin.Context) {
	var req createAPIRegistryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	clientID, ok := parseID(req.ClientID)
	if !ok {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "clientId must be a positive integer"))
		return
	}
	relations, err := toUnitRelations(req.UnitRelations)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	registration, err := s.apiRegistrySvc.Create(c.Request.Context(), domain.CreateRequest{
		ClientID:        clientID,
		ClientName:      req.ClientName,
		Title:           req.Title,
		UnitRelations:   relations,
		NotifyCondition: domain.NotifyCondition(strings.TrimSpace(req.NotifyCondition)),
		HealthStatus:    domain.HealthStatus(strings.TrimSpace(req.HealthStatus)),
		IntegrationType: domain.IntegrationType(strings.TrimSpace(req.IntegrationType)),
		TriggerID:       req.TriggerID,
		IsTest:          filter.BoolOr(string(req.IsTest), false),
		Status:          filter.Bool(string(req.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, registration)
}

func (s *Server) ListAPIRegistries(c *gin.Context) {
	var req listAPIRegistriesRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.apiRegistrySvc.List(c.Request.Context(), domain.ListRequest{
		ClientIDs:       req.ClientIDs,
		ClientName:      req.ClientName,
		Title:           req.Title,
		UnitNames:       req.UnitNames,
		UnitIDs:         req.UnitIDs,
		NotifyCondition: req.NotifyCondition,
		HealthStatus:    req.HealthStatus,
		IntegrationType: req.IntegrationType,
		TriggerID:       req.TriggerID,
		IsTest:          req.IsTest,
		Status:          req.Status,
		OrderBy:         req.OrderBy,
		OrderDirection:  req.OrderDirection,
		Page:            req.Page,
		Limit:           req.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) APIRegistryComboOptions(c *gin.Context) {
	opts, err := s.apiRegistrySvc.ComboOptions(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

// DeleteAPIRegistries takes a bare JSON array of ids. Entries that are not
// integers are dropped before the service sees them.
func (s *Server) DeleteAPIRegistries(c *gin.Context) {
	var raw filter.Values
	if err := bindOptionalJSON(c, &raw); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	parsed := filter.IDs(raw)
	ids := make([]snowflake.ID, 0, len(parsed))
	for _, id := range parsed {
		ids = append(ids, snowflake.ID(id))
	}

	resp, err := s.apiRegistrySvc.Delete(c.Request.Context(), ids)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateAPIRegistry(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id <= 0 {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid API registry id"))
		return
	}

	var req updateAPIRegistryRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := domain.UpdateRequest{
		ClientName: req.ClientName,
		Title:      req.Title,
		TriggerID:  req.TriggerID,
	}
	if req.ClientID != nil {
		clientID, ok := parseID(*req.ClientID)
		if !ok {
			AbortWithError(c, newValidationError("client_id", "invalid_client_id", "clientId must be a positive integer"))
			return
		}
		update.ClientID = &clientID
	}
	if req.UnitRelations != nil {
		relations, err := toUnitRelations(*req.UnitRelations)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if relations == nil {
			relations = []domain.UnitRelationInput{}
		}
		update.UnitRelations = relations
	}
	if req.NotifyCondition != nil {
		v := domain.NotifyCondition(strings.TrimSpace(*req.NotifyCondition))
		update.NotifyCondition = &v
	}
	if req.HealthStatus != nil {
		v := domain.HealthStatus(strings.TrimSpace(*req.HealthStatus))
		update.HealthStatus = &v
	}
	if req.IntegrationType != nil {
		v := domain.IntegrationType(strings.TrimSpace(*req.IntegrationType))
		update.IntegrationType = &v
	}
	for _, field := range []struct {
		name, key string
		raw       *filter.Value
		dst       **bool
	}{
		{"is_test", "isTest", req.IsTest, &update.IsTest},
		{"is_active", "isActive", req.IsActive, &update.IsActive},
		{"status", "status", req.Status, &update.Status},
	} {
		v, err := optionalBool(field.name, field.key, field.raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		*field.dst = v
	}

	registration, err := s.apiRegistrySvc.Update(c.Request.Context(), id, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, registration)
}

// optionalBool reads a patch flag. Absent or blank means unchanged; any
// other value must be a boolean.
func optionalBool(field, key string, raw *filter.Value) (*bool, error) {
	if raw == nil || strings.TrimSpace(string(*raw)) == "" {
		return nil, nil
	}
	v := filter.Bool(string(*raw))
	if v == nil {
		return nil, newValidationError(field, "invalid_"+field, key+" must be true or false")
	}
	return v, nil
}

func toUnitRelations(in []unitRelationRequest) ([]domain.UnitRelationInput, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]domain.UnitRelationInput, 0, len(in))
	for _, rel := range in {
		unitID, ok := parseID(rel.UnitID)
		if !ok {
			return nil, newValidationError("unit_relation", "invalid_unit_relation", "unitRelations entries need a positive unitId and a unitName")
		}
		out = append(out, domain.UnitRelationInput{UnitID: unitID, UnitName: rel.UnitName})
	}
	return out, nil
}
