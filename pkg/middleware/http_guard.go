package middleware

import (
	"context"
	"net/http"

	appvisitor "github.com/NeuralTrust/VisitorGate/pkg/app/visitor"
	"github.com/NeuralTrust/VisitorGate/pkg/domain/visitor"
	"github.com/sirupsen/logrus"
)

type outcomeContextKey struct{}

// OutcomeFromContext returns the outcome of an allowed, evaluated request.
func OutcomeFromContext(ctx context.Context) (*visitor.Outcome, bool) {
	outcome, ok := ctx.Value(outcomeContextKey{}).(*visitor.Outcome)
	return outcome, ok
}

// VisitorGuard gates net/http handlers. Evaluation errors answer 500 unless
// failOpen is set.
func VisitorGuard(evaluator VisitorEvaluator, logger *logrus.Logger, failOpen bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if evaluator == nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			outcome, err := evaluator.EvaluateVisitor(r.Context(), &httpRequest{r: r}, &httpResponse{w: w})
			if err != nil {
				entry := logger.WithError(err).WithField("path", r.URL.Path)
				if failOpen {
					entry.Warn("visitor evaluation failed, letting request through")
					next.ServeHTTP(w, r)
					return
				}
				entry.Error("visitor evaluation failed")
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			if outcome == nil {
				next.ServeHTTP(w, r)
				return
			}
			if outcome.Content != nil {
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), outcomeContextKey{}, outcome)))
		})
	}
}

type httpRequest struct {
	r *http.Request
}

var _ appvisitor.Request = (*httpRequest)(nil)

func (h *httpRequest) Header(name string) string {
	return h.r.Header.Get(name)
}

func (h *httpRequest) RemoteAddr() string {
	return h.r.RemoteAddr
}

func (h *httpRequest) Scheme() string {
	if h.r.TLS != nil {
		return "https"
	}
	return "http"
}

func (h *httpRequest) Host() string {
	return h.r.Host
}

// OriginalURL is always origin form, even for absolute-form request lines.
func (h *httpRequest) OriginalURL() string {
	return h.r.URL.RequestURI()
}

type httpResponse struct {
	w http.ResponseWriter
}

var _ appvisitor.Response = (*httpResponse)(nil)

func (h *httpResponse) SendStatus(code int) error {
	h.w.WriteHeader(code)
	return nil
}

func (h *httpResponse) SendHTML(code int, body string) error {
	h.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	h.w.WriteHeader(code)
	_, err := h.w.Write([]byte(body))
	return err
}

func (h *httpResponse) Redirect(code int, location string) error {
	h.w.Header().Set("Location", location)
	h.w.WriteHeader(code)
	return nil
}
