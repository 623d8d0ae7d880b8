package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/okian/quicktodo/internal/adapters/http/api"
	service "github.com/okian/quicktodo/internal/app"
	"github.com/okian/quicktodo/internal/domain/model"
	"github.com/okian/quicktodo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// newRouter builds a router backed by a started service.
func newRouter(opts ...service.Option) (*mux.Router, *service.Service) {
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	r := mux.NewRouter()
	api.NewServer(svc.Flavor(), svc, svc).Register(context.Background(), r)
	return r, svc
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

type failingDeps struct{}

var errBoom = errors.New("boom")

func (failingDeps) ListTasks(context.Context) ([]model.Task, error) { return nil, errBoom }
func (failingDeps) CreateTask(context.Context, any) (model.Task, error) {
	return model.Task{}, errBoom
}
func (failingDeps) DeleteTask(context.Context, string) (int, error) { return 0, errBoom }
func (failingDeps) DemoListing(context.Context) (model.DemoListing, bool) {
	return model.DemoListing{}, false
}
func (failingDeps) ListRecords(context.Context) ([]model.Record, error) { return nil, errBoom }
func (failingDeps) GetRecord(context.Context, int) (model.Record, error) {
	return nil, errBoom
}
func (failingDeps) CreateRecord(context.Context, model.Record) (model.Record, error) {
	return nil, errBoom
}
func (failingDeps) UpdateRecord(context.Context, int, model.Record) (model.Record, error) {
	return nil, errBoom
}
func (failingDeps) DeleteRecord(context.Context, int) (model.Record, error) {
	return nil, errBoom
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func TestServer_Register(t *testing.T) {
	Convey("Given a records API server", t, func() {
		r, svc := newRouter()
		defer svc.Stop()

		Convey("Then health should report ok", func() {
			w := do(r, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["status"], ShouldEqual, "ok")
		})

		Convey("Then stats should describe the service", func() {
			w := do(r, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["flavor"], ShouldEqual, model.FlavorRecords)
		})

		Convey("Then metrics should be exposed", func() {
			do(r, http.MethodGet, "/healthz", "")
			w := do(r, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "quicktodo_api_http_requests_total")
		})

		Convey("Then unknown routes answer a JSON 404", func() {
			w := do(r, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["code"], ShouldEqual, "not_found")
		})

		Convey("Then a wrong method answers 405", func() {
			w := do(r, http.MethodPatch, "/todos/1", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(decode(w)["code"], ShouldEqual, "method_not_allowed")
		})

		Convey("Then every response carries a request id", func() {
			w := do(r, http.MethodGet, "/healthz", "")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})

		Convey("Then a valid incoming request id is echoed", func() {
			const id = "0b7c3a56-8d3c-4e0e-9a55-2b7f7f0f5b11"
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set(api.RequestIDHeader, id)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, id)
		})

		Convey("Then an invalid incoming request id is replaced", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set(api.RequestIDHeader, "not-a-uuid")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			So(w.Header().Get(api.RequestIDHeader), ShouldNotEqual, "not-a-uuid")
		})
	})

	Convey("Given a nil router", t, func() {
		server := api.NewServer(model.FlavorTasks, failingDeps{}, &mockStatsProvider{})

		Convey("Then Register should panic", func() {
			So(func() { server.Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}

func TestTasksHandler(t *testing.T) {
	Convey("Given a tasks API server", t, func() {
		r, svc := newRouter(service.WithFlavor(model.FlavorTasks))
		defer svc.Stop()

		Convey("When listing", func() {
			w := do(r, http.MethodGet, "/todos", "")

			Convey("Then the seeded tasks are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Todos []model.Task `json:"todos"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Todos, ShouldResemble, model.SeedTasks())
			})
		})

		Convey("When creating a task", func() {
			w := do(r, http.MethodPost, "/todos", `{"task":"buy milk"}`)

			Convey("Then it is created incomplete and listed", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var created model.Task
				So(json.Unmarshal(w.Body.Bytes(), &created), ShouldBeNil)
				So(created.Task, ShouldEqual, "buy milk")
				So(created.Completed, ShouldBeFalse)
				So(created.ID, ShouldEqual, "4")

				list := do(r, http.MethodGet, "/todos", "")
				So(list.Body.String(), ShouldContainSubstring, `"buy milk"`)
			})
		})

		Convey("When creating with an empty body", func() {
			w := do(r, http.MethodPost, "/todos", "")

			Convey("Then a task with a null value is created", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Body.String(), ShouldContainSubstring, `"task":null`)
			})
		})

		Convey("When the task is not a string", func() {
			w := do(r, http.MethodPost, "/todos", `{"task":123}`)

			Convey("Then the value is stored and echoed unchanged", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Body.String(), ShouldContainSubstring, `"task":123`)

				list := do(r, http.MethodGet, "/todos", "")
				So(list.Body.String(), ShouldContainSubstring, `"_id":"4","task":123`)
			})

			Convey("And objects pass through as well", func() {
				w := do(r, http.MethodPost, "/todos", `{"task":{"title":"gym","tags":["a"]}}`)
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Body.String(), ShouldContainSubstring, `"task":{"tags":["a"],"title":"gym"}`)
			})
		})

		Convey("When creating with malformed JSON", func() {
			w := do(r, http.MethodPost, "/todos", `{"task":`)

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When creating with an oversized body", func() {
			big := `{"task":"` + strings.Repeat("x", 200<<10) + `"}`
			w := do(r, http.MethodPost, "/todos", big)

			Convey("Then it is rejected as too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})

		Convey("When deleting an existing task", func() {
			w := do(r, http.MethodDelete, "/todos/1", "")

			Convey("Then it is acknowledged and gone", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["message"], ShouldEqual, "Todo deleted!")
				So(svc.GetStats()["count"], ShouldEqual, 2)
			})
		})

		Convey("When deleting a missing task", func() {
			w := do(r, http.MethodDelete, "/todos/zzz", "")

			Convey("Then it is still acknowledged", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["message"], ShouldEqual, "Todo deleted!")
				So(svc.GetStats()["count"], ShouldEqual, 3)
			})
		})

		Convey("When asking for a single task", func() {
			w := do(r, http.MethodGet, "/todos/1", "")

			Convey("Then the method is not allowed", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})

	Convey("Given a tasks server whose store fails", t, func() {
		r := mux.NewRouter()
		api.NewServer(model.FlavorTasks, failingDeps{}, &mockStatsProvider{}).Register(context.Background(), r)

		Convey("Then every route answers 500", func() {
			So(do(r, http.MethodGet, "/todos", "").Code, ShouldEqual, http.StatusInternalServerError)
			So(do(r, http.MethodPost, "/todos", `{"task":"a"}`).Code, ShouldEqual, http.StatusInternalServerError)
			So(do(r, http.MethodDelete, "/todos/1", "").Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestRecordsHandler(t *testing.T) {
	Convey("Given a records API server", t, func() {
		r, svc := newRouter()
		defer svc.Stop()

		Convey("When listing", func() {
			w := do(r, http.MethodGet, "/todos", "")

			Convey("Then the demo payload is returned and flagged", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("X-Demo-Payload"), ShouldEqual, "true")
				So(w.Body.String(), ShouldEqual,
					`{"tasks":["task one",4,"task two","task three"],"empty_str":"","empty_arr":[],"resp_null":null}`+"\n")
			})
		})

		Convey("When running the buy milk scenario", func() {
			w := do(r, http.MethodPost, "/todos", `{"task":"buy milk"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(decode(w), ShouldResemble, map[string]any{"id": float64(1), "task": "buy milk"})

			w = do(r, http.MethodGet, "/todos/1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["task"], ShouldEqual, "buy milk")

			w = do(r, http.MethodPut, "/todos/1", `{"task":"buy bread","done":true}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w), ShouldResemble, map[string]any{"id": float64(1), "task": "buy bread", "done": true})

			w = do(r, http.MethodDelete, "/todos/1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["task"], ShouldEqual, "buy bread")

			w = do(r, http.MethodGet, "/todos/1", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["error"], ShouldEqual, "Todo not found")
		})

		Convey("When a client sends its own id", func() {
			w := do(r, http.MethodPost, "/todos", `{"id":99,"task":"x"}`)

			Convey("Then the server assigns the id", func() {
				So(decode(w)["id"], ShouldEqual, float64(1))
			})

			Convey("And a patch can move it to a new id", func() {
				w := do(r, http.MethodPut, "/todos/1", `{"id":7,"task":"y"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w), ShouldResemble, map[string]any{"id": float64(7), "task": "y"})

				So(do(r, http.MethodGet, "/todos/7", "").Code, ShouldEqual, http.StatusOK)
				So(do(r, http.MethodGet, "/todos/1", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(r, http.MethodDelete, "/todos/7", "").Code, ShouldEqual, http.StatusOK)
			})

			Convey("And a patch with a non-integer id leaves the record unreachable", func() {
				w := do(r, http.MethodPut, "/todos/1", `{"id":"seven"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["id"], ShouldEqual, "seven")
				So(do(r, http.MethodGet, "/todos/1", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When numbers are posted", func() {
			w := do(r, http.MethodPost, "/todos", `{"priority":12345678901234567890}`)

			Convey("Then they round-trip unchanged", func() {
				So(w.Body.String(), ShouldContainSubstring, `"priority":12345678901234567890`)
			})
		})

		Convey("When creating with an empty body", func() {
			w := do(r, http.MethodPost, "/todos", "")

			Convey("Then a record with only an id is created", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(decode(w), ShouldResemble, map[string]any{"id": float64(1)})
			})
		})

		Convey("When the body is not an object", func() {
			for _, body := range []string{`[1,2]`, `"x"`, `42`, `null`} {
				w := do(r, http.MethodPost, "/todos", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the body is malformed", func() {
			_ = do(r, http.MethodPost, "/todos", `{}`)
			w := do(r, http.MethodPut, "/todos/1", `{"task"`)

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the id is not an integer", func() {
			_ = do(r, http.MethodPost, "/todos", `{}`)

			Convey("Then every id route answers not found", func() {
				So(do(r, http.MethodGet, "/todos/abc", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(r, http.MethodPut, "/todos/abc", `{}`).Code, ShouldEqual, http.StatusNotFound)
				So(do(r, http.MethodDelete, "/todos/abc", "").Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And a leading integer is honored", func() {
				So(do(r, http.MethodGet, "/todos/1abc", "").Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When updating or deleting a missing record", func() {
			Convey("Then both answer not found", func() {
				So(do(r, http.MethodPut, "/todos/5", `{"a":1}`).Code, ShouldEqual, http.StatusNotFound)
				So(do(r, http.MethodDelete, "/todos/5", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})

	Convey("Given a records server with demo listing off", t, func() {
		r, svc := newRouter(service.WithDemoListing(false))
		defer svc.Stop()
		_ = do(r, http.MethodPost, "/todos", `{"task":"a"}`)

		Convey("Then listing returns stored records", func() {
			w := do(r, http.MethodGet, "/todos", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("X-Demo-Payload"), ShouldBeEmpty)
			So(w.Body.String(), ShouldEqual, `{"todos":[{"id":1,"task":"a"}]}`+"\n")
		})
	})

	Convey("Given a records server whose store fails", t, func() {
		r := mux.NewRouter()
		api.NewServer(model.FlavorRecords, failingDeps{}, &mockStatsProvider{}).Register(context.Background(), r)

		Convey("Then store failures answer 500", func() {
			So(do(r, http.MethodGet, "/todos", "").Code, ShouldEqual, http.StatusInternalServerError)
			So(do(r, http.MethodGet, "/todos/1", "").Code, ShouldEqual, http.StatusInternalServerError)
			So(do(r, http.MethodPost, "/todos", `{}`).Code, ShouldEqual, http.StatusInternalServerError)
			So(do(r, http.MethodPut, "/todos/1", `{}`).Code, ShouldEqual, http.StatusInternalServerError)
			So(do(r, http.MethodDelete, "/todos/1", "").Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		handler := api.NewStatsHandler(&mockStatsProvider{stats: map[string]interface{}{"count": 3}})

		Convey("When handling a request", func() {
			w := httptest.NewRecorder()
			handler.HandleStats(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then it should return the provider's stats as JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				So(decode(w)["count"], ShouldEqual, float64(3))
			})
		})
	})
}
