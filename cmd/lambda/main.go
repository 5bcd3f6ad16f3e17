// Package main wraps the chi router behind API Gateway's HTTP API (v2)
// payload format, the Lambda deployment target for the REST surface
// alongside the long-running cmd/api server.
package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kgraph/engine/internal/app"
	"github.com/kgraph/engine/internal/config"
	kgerrors "github.com/kgraph/engine/internal/errors"
	"github.com/kgraph/engine/interfaces/http/rest"
)

var (
	chiLambda     *chiadapter.ChiLambdaV2
	container     *app.Container
	coldStart     = true
	coldStartTime time.Time
)

func init() {
	coldStartTime = time.Now()
	log.Println("lambda cold start initiated")

	cfg := config.LoadConfig()

	structuredLogger, err := kgerrors.NewStructuredLogger(string(cfg.Environment))
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	container, err = app.NewContainer(context.Background(), &cfg, structuredLogger.Logger)
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}

	router := rest.NewRouter(container.Mediator, container.Logger)
	handler := router.Setup()

	chiRouter, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("failed to cast handler to *chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	log.Printf("lambda cold start completed in %v", time.Since(coldStartTime))
}

// Handler proxies an API Gateway HTTP API v2 request to the chi router.
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	} else {
		resp.Headers["X-Cold-Start"] = "false"
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	if err != nil {
		container.Logger.Error("lambda proxy error", zap.Error(err), zap.String("path", req.RawPath))
	}
	return resp, err
}

func main() {
	lambda.Start(Handler)
}
