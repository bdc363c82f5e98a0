package api

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	boshcrypto "github.com/cloudfoundry/bosh-multidigest/crypto"
	bosherr "github.com/cloudfoundry/bosh-multidigest/errors"
	"github.com/cloudfoundry/bosh-multidigest/hashservice"
	boshlog "github.com/cloudfoundry/bosh-multidigest/logger"
)

const handlerLogTag = "apiHandler"

const (
	HashPath       = "/hash"
	BatchPath      = "/batch"
	ScanPath       = "/scan"
	AlgorithmsPath = "/algorithms"
)

type handler struct {
	service hashservice.Service
	logger  boshlog.Logger
}

// NewRouter serves the hashing operations as JSON. Operation failures are
// reported in the response body with status 200; only malformed requests
// get a 400.
func NewRouter(service hashservice.Service, logger boshlog.Logger) *mux.Router {
	h := handler{service: service, logger: logger}

	router := mux.NewRouter()
	router.Use(h.logRequests)

	router.HandleFunc(HashPath, h.hash).Methods(http.MethodPost)
	router.HandleFunc(BatchPath, h.batch).Methods(http.MethodPost)
	router.HandleFunc(ScanPath, h.scan).Methods(http.MethodPost)
	router.HandleFunc(AlgorithmsPath, h.algorithms).Methods(http.MethodGet)

	return router
}

func (h handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.logger.Debug(handlerLogTag, "Handling %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

func (h handler) hash(w http.ResponseWriter, r *http.Request) {
	var req HashRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.respond(w, http.StatusOK, h.service.ComputeFileHash(r.Context(), req.FilePath, req.Algorithms))
}

func (h handler) batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.respond(w, http.StatusOK, h.service.ComputeBatchHashes(r.Context(), req.FilePaths, req.Algorithms))
}

func (h handler) scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.respond(w, http.StatusOK, h.service.ScanDirectory(req.DirPath))
}

func (h handler) algorithms(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, http.StatusOK, AlgorithmsResponse{Algorithms: boshcrypto.SupportedAlgorithms()})
}

func (h handler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(req)
	if err != nil {
		err = bosherr.WrapError(err, "Decoding request body")
		h.logger.Debug(handlerLogTag, "Rejecting %s %s: %s", r.Method, r.URL.Path, err)
		h.respond(w, http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		return false
	}

	return true
}

func (h handler) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		h.logger.Error(handlerLogTag, "Writing response: %s", err)
	}
}
