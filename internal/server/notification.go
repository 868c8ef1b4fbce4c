package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/mainservice/internal/apperror"
	"github.com/smallbiznis/mainservice/internal/filter"
	"github.com/smallbiznis/mainservice/internal/notification/domain"
)

type utilityDetectionRequest struct {
	UnitID        filter.Value `json:"unitId"`
	DateDetection string       `json:"dateDetection"`
	Consumption   filter.Value `json:"consumption"`
}

type machineHealthDetectionRequest struct {
	UnitID        filter.Value `json:"unitId"`
	DateDetection string       `json:"dateDetection"`
	MachineName   string       `json:"machineName"`
	MachineID     filter.Value `json:"machineId"`
	AssetName     string       `json:"assetName"`
	AssetID       filter.Value `json:"assetId"`
	DeviceCode    string       `json:"deviceCode"`
	Report        string       `json:"report"`
}

type createEnergyNotificationRequest struct {
	Detections      []utilityDetectionRequest `json:"detections"`
	DestinataryIDs  []string                  `json:"destinataryIds"`
	Setpoint        filter.Value              `json:"setpoint"`
	IsGreater       filter.Value              `json:"isGreater"`
	IsInstantaneous filter.Value              `json:"isInstantaneous"`
}

type createWaterNotificationRequest struct {
	Detections      []utilityDetectionRequest `json:"detections"`
	DestinataryIDs  []string                  `json:"destinataryIds"`
	IsInstantaneous filter.Value              `json:"isInstantaneous"`
}

type createMachineHealthNotificationRequest struct {
	Detections      []machineHealthDetectionRequest `json:"detections"`
	DestinataryIDs  []string                        `json:"destinataryIds"`
	IsInstantaneous filter.Value                    `json:"isInstantaneous"`
	HealthIndex     filter.Value                    `json:"healthIndex"`
}

func (s *Server) CreateEnergyNotification(c *gin.Context) {
	var req createEnergyNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	detections, err := toUtilityDetections(req.Detections)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	setpoint, ok := parseNumber(req.Setpoint)
	if !ok {
		AbortWithError(c, newValidationError("setpoint", "invalid_setpoint", "setpoint must be a number"))
		return
	}

	n, err := s.notificationSvc.CreateEnergy(c.Request.Context(), domain.CreateEnergyRequest{
		Detections:      detections,
		DestinataryIDs:  req.DestinataryIDs,
		Setpoint:        setpoint,
		IsGreater:       filter.BoolOr(string(req.IsGreater), false),
		IsInstantaneous: filter.BoolOr(string(req.IsInstantaneous), false),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (s *Server) CreateWaterNotification(c *gin.Context) {
	var req createWaterNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	detections, err := toUtilityDetections(req.Detections)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	n, err := s.notificationSvc.CreateWater(c.Request.Context(), domain.CreateWaterRequest{
		Detections:      detections,
		DestinataryIDs:  req.DestinataryIDs,
		IsInstantaneous: filter.BoolOr(string(req.IsInstantaneous), false),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (s *Server) CreateMachineHealthNotification(c *gin.Context) {
	var req createMachineHealthNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	detections := make([]domain.MachineHealthDetectionInput, 0, len(req.Detections))
	for _, d := range req.Detections {
		unitID, ok := parseID(d.UnitID)
		if !ok {
			AbortWithError(c, invalidDetectionError())
			return
		}
		machineID, _ := parseID(d.MachineID)
		assetID, _ := parseID(d.AssetID)
		detections = append(detections, domain.MachineHealthDetectionInput{
			UnitID:        unitID,
			DateDetection: parseDetectionTime(d.DateDetection),
			MachineName:   d.MachineName,
			MachineID:     machineID,
			AssetName:     d.AssetName,
			AssetID:       assetID,
			DeviceCode:    d.DeviceCode,
			Report:        d.Report,
		})
	}
	healthIndex, ok := parseID(req.HealthIndex)
	if !ok {
		AbortWithError(c, newValidationError("health_index", "invalid_health_index", "healthIndex must reference a known machine health index"))
		return
	}

	n, err := s.notificationSvc.CreateMachineHealth(c.Request.Context(), domain.CreateMachineHealthRequest{
		Detections:      detections,
		DestinataryIDs:  req.DestinataryIDs,
		IsInstantaneous: filter.BoolOr(string(req.IsInstantaneous), false),
		HealthIndex:     healthIndex,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (s *Server) ViewNotification(c *gin.Context) {
	user, err := sessionUser(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// An unparseable id becomes 0, which the service reports as invalid.
	id, _ := snowflake.ParseString(strings.TrimSpace(c.Query("notificationId")))

	resp, err := s.notificationSvc.View(c.Request.Context(), user, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ViewAllNotifications(c *gin.Context) {
	user, err := sessionUser(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.notificationSvc.ViewAll(c.Request.Context(), user)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListNotifications(c *gin.Context) {
	user, err := sessionUser(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.notificationSvc.List(c.Request.Context(), domain.ListRequest{
		DestinataryID: user,
		Authorization: c.GetHeader("Authorization"),
		IsViewed:      c.Query("isViewed"),
		ClientIDs:     queryList(c, "clientIds"),
		UnitIDs:       queryList(c, "unitIds"),
		StateIDs:      queryList(c, "stateIds"),
		CityIDs:       queryList(c, "cityIds"),
		TypeIDs:       queryList(c, "typeIds"),
		SubtypeIDs:    queryList(c, "subtypeIds"),
		DateStart:     c.Query("dateStart"),
		DateEnd:       c.Query("dateEnd"),
		Skip:          c.Query("skip"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CountNotifications(c *gin.Context) {
	user, err := sessionUser(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	count, err := s.notificationSvc.CountUnviewed(c.Request.Context(), user)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, count)
}

func sessionUser(c *gin.Context) (string, error) {
	sess, ok := currentSession(c)
	if !ok || strings.TrimSpace(sess.User) == "" {
		return "", apperror.Unauthorized("server.session", "unauthorized")
	}
	return sess.User, nil
}

func toUtilityDetections(in []utilityDetectionRequest) ([]domain.UtilityDetectionInput, error) {
	out := make([]domain.UtilityDetectionInput, 0, len(in))
	for _, d := range in {
		unitID, ok := parseID(d.UnitID)
		if !ok {
			return nil, invalidDetectionError()
		}
		consumption, ok := parseNumber(d.Consumption)
		if !ok {
			return nil, newValidationError("consumption", "invalid_consumption", "consumption must be a number")
		}
		out = append(out, domain.UtilityDetectionInput{
			UnitID:        unitID,
			DateDetection: parseDetectionTime(d.DateDetection),
			Consumption:   consumption,
		})
	}
	return out, nil
}

func invalidDetectionError() error {
	return newValidationError("detection", "invalid_detection", "detections need a positive unitId and a dateDetection")
}
