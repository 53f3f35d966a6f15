package server

import (
	"errors"
	"fmt"

	"github.com/NeuralTrust/VisitorGate/pkg/config"
	"github.com/NeuralTrust/VisitorGate/pkg/server/router"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type (
	GateServerDI struct {
		Config  *config.Config
		Logger  *logrus.Logger
		Routers []router.ServerRouter
	}
	GateServer struct {
		*BaseServer
	}
)

func NewGateServer(di GateServerDI) *GateServer {
	s := &GateServer{
		BaseServer: NewBaseServer(di.Config, di.Logger).WithRouters(di.Routers...),
	}
	s.BaseServer.setupMetricsEndpoint()
	return s
}

// Run blocks until both the gate and the metrics listener stop.
func (s *GateServer) Run() error {
	var g errgroup.Group
	g.Go(func() error {
		addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
		s.Logger.WithField("addr", addr).Info("starting visitor gate")
		return s.Router.Listen(addr)
	})
	g.Go(s.runMetrics)
	return g.Wait()
}

func (s *GateServer) Shutdown() error {
	return errors.Join(s.Router.Shutdown(), s.shutdownMetrics())
}
