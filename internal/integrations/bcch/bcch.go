package bcch

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/rental-yield/internal/config"
	"github.com/Dan9191/rental-yield/internal/models"
	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
)

// UFSeries is the SIETE series id of the daily UF value
const UFSeries = "F073.UFF.PRE.Z.D"

// Client handles integration with the Banco Central de Chile SIETE web service
type Client struct {
	url      string
	user     string
	password string
	client   *http.Client
	log      *logrus.Logger
	now      func() time.Time
}

// NewClient initializes a new SIETE client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url:      cfg.BCChURL,
		user:     cfg.BCChUser,
		password: cfg.BCChPassword,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
		now: time.Now,
	}
}

// Name identifies the provider in logs and responses
func (c *Client) Name() string {
	return "bcch"
}

// buildSOAPRequest creates a GetSeries request covering the last week
func (c *Client) buildSOAPRequest() string {
	today := c.now()
	fromDate := today.AddDate(0, 0, -7).Format("2006-01-02")
	toDate := today.Format("2006-01-02")
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<GetSeries xmlns="http://bancocentral.org/">
					<user>%s</user>
					<password>%s</password>
					<firstDate>%s</firstDate>
					<lastDate>%s</lastDate>
					<seriesIds><string>%s</string></seriesIds>
				</GetSeries>
			</soap12:Body>
		</soap12:Envelope>`, html.EscapeString(c.user), html.EscapeString(c.password), fromDate, toDate, UFSeries)
}

// sendRequest sends the SOAP request to SIETE
func (c *Client) sendRequest(ctx context.Context, soapRequest string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBufferString(soapRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://bancocentral.org/GetSeries")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debugf("SIETE XML response: %s", string(body))
	return body, nil
}

// parseXMLResponse extracts the latest valid observation
func parseXMLResponse(rawBody []byte) (value float64, date string, err error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, "", fmt.Errorf("failed to parse XML: %w", err)
	}

	if code := doc.FindElement("//GetSeriesResult/Codigo"); code != nil && strings.TrimSpace(code.Text()) != "0" {
		desc := ""
		if d := doc.FindElement("//GetSeriesResult/Descripcion"); d != nil {
			desc = d.Text()
		}
		return 0, "", fmt.Errorf("SIETE error %s: %s", strings.TrimSpace(code.Text()), desc)
	}

	observations := doc.FindElements("//fameSeries/obs")
	if len(observations) == 0 {
		return 0, "", fmt.Errorf("no UF observations found in XML")
	}

	// Observations are chronological; take the newest usable one
	for i := len(observations) - 1; i >= 0; i-- {
		obs := observations[i]
		if status := obs.FindElement("./statusCode"); status != nil && status.Text() != "OK" {
			continue
		}
		valueElement := obs.FindElement("./value")
		if valueElement == nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(valueElement.Text()), 64)
		if err != nil || v <= 0 {
			continue
		}
		if d := obs.FindElement("./indexDateString"); d != nil {
			date = d.Text()
		}
		return v, date, nil
	}
	return 0, "", fmt.Errorf("no valid UF observation in XML")
}

// FetchUF retrieves the latest UF value from SIETE
func (c *Client) FetchUF(ctx context.Context) (models.UFRate, error) {
	if c.user == "" {
		return models.UFRate{}, fmt.Errorf("SIETE credentials not configured")
	}

	body, err := c.sendRequest(ctx, c.buildSOAPRequest())
	if err != nil {
		return models.UFRate{}, err
	}

	value, date, err := parseXMLResponse(body)
	if err != nil {
		return models.UFRate{}, err
	}

	c.log.Infof("Retrieved UF value: %.2f (%s)", value, date)
	return models.UFRate{Value: value, Date: date, Source: c.Name(), Fetched: c.now()}, nil
}
