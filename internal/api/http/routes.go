package httpapi

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/power-fluctuation-advisory/internal/chart"
	"github.com/i474232898/power-fluctuation-advisory/internal/common"
	"github.com/i474232898/power-fluctuation-advisory/internal/power"
	"github.com/i474232898/power-fluctuation-advisory/internal/power/sources"
	"github.com/i474232898/power-fluctuation-advisory/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *power.Service, sample *sources.SampleSet) {
	v1 := app.Group("/api/v1")

	v1.Get("/thresholds", func(c *fiber.Ctx) error {
		return c.JSON(service.Defaults())
	})

	v1.Post("/evaluations", func(c *fiber.Ctx) error {
		var q thresholdsQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		source, body, err := uploadBody(c)
		if err != nil {
			return err
		}
		defer body.Close()

		readings, err := sources.ParseCSV(body)
		if err != nil {
			return evaluationError(err)
		}

		report, err := service.Evaluate(c.UserContext(), source, readings, q.apply(service.Defaults()))
		if err != nil {
			return evaluationError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(report)
	})

	v1.Get("/evaluations/sample", func(c *fiber.Ctx) error {
		var q thresholdsQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.Evaluate(c.UserContext(), "sample", sample.Readings(), q.apply(service.Defaults()))
		if err != nil {
			return evaluationError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(report)
	})

	v1.Get("/evaluations/:id", func(c *fiber.Ctx) error {
		report, err := service.GetReport(c.Params("id"))
		if err != nil {
			return evaluationError(err)
		}
		return c.JSON(report)
	})

	v1.Get("/evaluations/:id/charts/:metric", func(c *fiber.Ctx) error {
		metric, err := chart.ParseMetric(c.Params("metric"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.GetReport(c.Params("id"))
		if err != nil {
			return evaluationError(err)
		}

		var buf bytes.Buffer
		if err := chart.Render(&buf, report.Readings, metric); err != nil {
			if errors.Is(err, chart.ErrMetricUnavailable) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render chart")
		}

		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(buf.Bytes())
	})
}

// evaluationError maps domain errors onto HTTP errors.
func evaluationError(err error) error {
	var formatErr *power.DataFormatError
	switch {
	case errors.As(err, &formatErr):
		return fiber.NewError(fiber.StatusBadRequest, "invalid data: "+formatErr.Error())
	case errors.Is(err, power.ErrInvalidThresholds):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, power.ErrEmptyInput):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "no report for requested id")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to evaluate dataset")
	}
}

// uploadBody returns the CSV content of the request: the multipart "file"
// field when present, the raw body for CSV-like content types otherwise.
func uploadBody(c *fiber.Ctx) (string, io.ReadCloser, error) {
	contentType := c.Get(fiber.HeaderContentType)

	if common.HasAnyFold(contentType, fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return "", nil, fiber.NewError(fiber.StatusBadRequest, "multipart field \"file\" is required")
		}
		f, err := fh.Open()
		if err != nil {
			return "", nil, fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
		}
		return "upload:" + fh.Filename, f, nil
	}

	if contentType == "" || common.HasAnyFold(contentType, "text/csv", "application/csv", "text/plain", fiber.MIMEOctetStream) {
		return "upload", io.NopCloser(bytes.NewReader(c.Body())), nil
	}

	return "", nil, fiber.NewError(fiber.StatusUnsupportedMediaType, "expected text/csv body or multipart upload")
}

// thresholdsQuery holds optional per-request overrides of the default thresholds.
type thresholdsQuery struct {
	Low     *float64 `validate:"omitempty,gte=0"`
	High    *float64 `validate:"omitempty,gte=0"`
	Nominal *float64 `validate:"omitempty,gt=0"`
}

func (q *thresholdsQuery) bind(c *fiber.Ctx) error {
	var err error
	if q.Low, err = queryFloat(c, "low"); err != nil {
		return err
	}
	if q.High, err = queryFloat(c, "high"); err != nil {
		return err
	}
	if q.Nominal, err = queryFloat(c, "nominal"); err != nil {
		return err
	}
	return validate.Struct(q)
}

// apply overlays the overrides on defaults; band ordering is checked by the service.
func (q thresholdsQuery) apply(defaults power.Thresholds) power.Thresholds {
	th := defaults
	if q.Low != nil {
		th.Band.Low = *q.Low
	}
	if q.High != nil {
		th.Band.High = *q.High
	}
	if q.Nominal != nil {
		th.NominalVoltage = *q.Nominal
	}
	return th
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, errors.New("invalid " + key + " query parameter; expected a number")
	}
	return &v, nil
}
