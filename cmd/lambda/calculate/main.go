package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"billbook-api/internal/handlers"
	"billbook-api/pkg/lambda"
)

func handler(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	container, err := lambda.GetConnectionManager().GetContainer(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to initialize container")
		return lambda.InternalError().ToAPIGateway(), nil
	}

	req := lambda.FromAPIGateway(event)
	calculationHandler := handlers.NewCalculationHandler(container.CalculatorService)

	var resp *lambda.Response
	path := strings.TrimSuffix(req.Path, "/")

	switch {
	case req.Method == http.MethodPost && path == "/api/v1/calculate/line":
		resp, err = calculationHandler.HandleCalculateLine(ctx, req)
	case req.Method == http.MethodPost && path == "/api/v1/calculate/document":
		resp, err = calculationHandler.HandleCalculateDocument(ctx, req)
	case req.Method == http.MethodGet && path == "/api/v1/tax-slabs":
		resp, err = calculationHandler.HandleGetTaxSlabs(ctx, req)
	default:
		resp = lambda.NotFound()
	}

	if err != nil {
		logrus.WithError(err).WithField("path", req.Path).Error("Handler failed")
		return lambda.InternalError().ToAPIGateway(), nil
	}

	return resp.ToAPIGateway(), nil
}

func main() {
	awslambda.Start(handler)
}
