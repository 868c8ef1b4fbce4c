package notification

import (
	"github.com/smallbiznis/mainservice/internal/notification/repository"
	"github.com/smallbiznis/mainservice/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
