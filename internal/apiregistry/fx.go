package apiregistry

import (
	"github.com/smallbiznis/mainservice/internal/apiregistry/repository"
	"github.com/smallbiznis/mainservice/internal/apiregistry/service"
	"go.uber.org/fx"
)

var Module = fx.Module("apiregistry.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
