package restapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"opentransit.org/internal/logging"
	"opentransit.org/internal/utils"
)

// maxRequestBytes bounds a GraphQL request body.
const maxRequestBytes = 1 << 20

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// graphqlHandler executes one query. Requests that cannot be read get a 400;
// anything that reaches the schema is answered with 200 and the standard
// {data, errors} body.
func (api *RestAPI) graphqlHandler(w http.ResponseWriter, r *http.Request) {
	req, err := readGraphQLRequest(w, r)
	if err != nil {
		api.badRequestResponse(w, r, err.Error())
		return
	}

	resp := api.Schema.Exec(r.Context(), req.Query, req.OperationName, req.Variables)
	if len(resp.Errors) > 0 {
		logging.FromContext(r.Context()).Debug("graphql query returned errors",
			slog.Int("errors", len(resp.Errors)),
			slog.String("first_error", resp.Errors[0].Message),
			slog.String("component", "graphql"))
	}

	body, err := json.Marshal(resp)
	if err != nil {
		api.serverErrorResponse(w, r, fmt.Errorf("encoding graphql response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func readGraphQLRequest(w http.ResponseWriter, r *http.Request) (graphqlRequest, error) {
	var req graphqlRequest

	if r.Method == http.MethodGet {
		params := r.URL.Query()
		req.Query = params.Get("query")
		req.OperationName = params.Get("operationName")
		if raw := params.Get("variables"); raw != "" {
			if err := decodeJSON(bytes.NewReader([]byte(raw)), &req.Variables); err != nil {
				return req, fmt.Errorf("invalid variables: %w", err)
			}
		}
	} else {
		body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

		switch mediaType {
		case "application/graphql":
			query, err := io.ReadAll(body)
			if err != nil {
				return req, fmt.Errorf("reading request body: %w", err)
			}
			req.Query = string(query)
		default:
			if err := decodeJSON(body, &req); err != nil {
				return req, fmt.Errorf("invalid request body: %w", err)
			}
		}
	}

	if err := utils.ValidateRequest(req.Query, req.OperationName, req.Variables); err != nil {
		return req, err
	}
	return req, nil
}

// decodeJSON keeps numbers as json.Number so Decimal variables are not
// rounded through float64.
func decodeJSON(r io.Reader, target interface{}) error {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}
