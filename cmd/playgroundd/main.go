package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/opst/playground/cmd/playgroundd/handlers"
	"github.com/opst/playground/pkg/admission"
	"github.com/opst/playground/pkg/buildtime"
	kcf "github.com/opst/playground/pkg/configs/playground"
	"github.com/opst/playground/pkg/credentials"
	"github.com/opst/playground/pkg/echoutil"
	"github.com/opst/playground/pkg/kubeutil"
	"github.com/opst/playground/pkg/metrics"
	"github.com/opst/playground/pkg/orchestrator"
	"github.com/opst/playground/pkg/session"
	"github.com/opst/playground/pkg/workloads/instance"
	"github.com/opst/playground/pkg/workloads/k8s"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config-path", "", "config file path")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	kubeconfig := flag.String("kubeconfig", "", "(optional) path to kubeconfig file")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	pversion := flag.Bool("version", false, "show version and exit")
	flag.Parse()

	if *pversion {
		log.Println(buildtime.VersionString())
		return
	}
	log.Printf("playgroundd %s", buildtime.VersionString())

	conf, err := kcf.Load(*configPath)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}

	clientset, err := kubeutil.Connect(*kubeconfig)
	if err != nil {
		log.Fatalf("can not connect to kubernetes: %s", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		log.Fatalf("can not register metrics: %s", err)
	}

	issuer, err := session.NewIssuer(conf.Session().IssuerConfig())
	if err != nil {
		log.Fatalf("can not issue sessions: %s", err)
	}

	registry := instance.NewRegistry(
		k8s.WrapK8sClient(clientset),
		conf.Cluster().Namespace(),
		conf.Cluster().Template(),
	)
	orch, err := orchestrator.New(orchestrator.Deps{
		Verifier:  credentials.NewVerifier(conf.Admin().Name(), conf.Admin().Secret(), rec),
		Hasher:    credentials.Hasher{Cost: conf.HashCost()},
		Sessions:  issuer,
		Admission: &admission.Controller{Max: conf.MaxInstances(), Lister: registry},
		Registry:  registry,
		Recorder:  rec,
		Poll:      conf.Readiness(),
	})
	if err != nil {
		log.Fatalf("can not start orchestrator: %s", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// set log
	echoutil.SetLevel(e, *loglevel)
	e.HTTPErrorHandler = handlers.ErrorHandler(e)
	e.Use(echoutil.LogHandlerFunc)

	handlers.Route(e, orch, issuer)

	metricsHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	var metricsServer *http.Server
	if mp := conf.MetricsPort(); mp == "" || mp == conf.Port() {
		e.GET("/metrics", echo.WrapHandler(metricsHandler))
	} else {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		metricsServer = &http.Server{Addr: ":" + mp, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	}

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *configPath != "" {
		wctx, cancel, err := kcf.UntilModified(ctx, *configPath)
		if err != nil {
			log.Fatalf("can not watch configration: %s", err)
		}
		defer cancel()
		ctx = wctx
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cert, key := *pcert, *pkey; cert != "" && key != "" {
			err = e.StartTLS(":"+conf.Port(), cert, key)
		} else {
			err = e.Start(":" + conf.Port())
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("shutting down: %s", context.Cause(gctx))

		graceful, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := e.Shutdown(graceful)
		if metricsServer != nil {
			err = errors.Join(err, metricsServer.Shutdown(graceful))
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server stopped: %s", err)
	}
}
