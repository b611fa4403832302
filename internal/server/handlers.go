package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/livingwales/areaselect/internal/buffer"
	"github.com/livingwales/areaselect/internal/catalog"
	"github.com/livingwales/areaselect/internal/display"
	"github.com/livingwales/areaselect/internal/geomio"
	"github.com/livingwales/areaselect/internal/selection"
	"github.com/livingwales/areaselect/internal/session"
)

// maxBody caps request bodies; drawn shapes are small.
const maxBody = 4 << 20

// response is the envelope every session endpoint returns. Output holds what
// the session showed while handling the request.
type response struct {
	Data   any            `json:"data,omitempty"`
	Output display.Output `json:"output"`
	Error  string         `json:"error,omitempty"`
}

// areaResponse is a resolved selection.
type areaResponse struct {
	Source       selection.Source           `json:"source"`
	Label        string                     `json:"label"`
	Count        int                        `json:"count"`
	AreaHectares float64                    `json:"area_hectares"`
	Features     *geojson.FeatureCollection `json:"features"`
}

// previewResponse is an unconfirmed buffer.
type previewResponse struct {
	Mode     buffer.Mode       `json:"mode"`
	Distance float64           `json:"distance_meters"`
	Geometry *geojson.Geometry `json:"geometry"`
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, e *entry) (any, error)

// withSession resolves the {id} session, runs h, and writes its result along
// with the session's drained output.
func (s *Server) withSession(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := s.lookup(chi.URLParam(r, "id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, response{Error: "unknown session"})
			return
		}
		data, err := h(w, r, e)
		out := e.recorder.Drain()
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				zap.L().Error("server: request failed", zap.String("path", r.URL.Path), zap.Error(err))
			}
			writeJSON(w, status, response{Data: data, Output: out, Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, response{Data: data, Output: out})
	}
}

// errBadRequest marks malformed requests.
var errBadRequest = eris.New("server: bad request")

func statusFor(err error) int {
	var loadErr *catalog.DataLoadError
	switch {
	case eris.Is(err, errBadRequest), eris.Is(err, geomio.ErrInvalidGeometryInput):
		return http.StatusBadRequest
	case eris.Is(err, selection.ErrInvalidTransition), eris.Is(err, session.ErrNoBufferPreview):
		return http.StatusConflict
	case eris.Is(err, session.ErrUnknownOption), eris.Is(err, buffer.ErrInvalidParameter), errors.As(err, &loadErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v); err != nil {
		return eris.Wrap(errBadRequest, "server: invalid request body: "+err.Error())
	}
	return nil
}

func (s *Server) createSession(w http.ResponseWriter, _ *http.Request) {
	id, e := s.open()
	sel := e.session.StartAreaSelection()
	writeJSON(w, http.StatusCreated, response{
		Data:   map[string]any{"id": id.String(), "selector": sel},
		Output: e.recorder.Drain(),
	})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.close(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, response{Error: "unknown session"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) groups(_ http.ResponseWriter, _ *http.Request, e *entry) (any, error) {
	return e.session.Selector().Groups, nil
}

// shapefiles selects ?group= and lists its shapefiles.
func (s *Server) shapefiles(_ http.ResponseWriter, r *http.Request, e *entry) (any, error) {
	group := r.URL.Query().Get("group")
	if group == "" {
		return e.session.Selector().Shapefiles, nil
	}
	sel, err := e.session.ChooseGroup(group)
	return sel.Shapefiles, err
}

func (s *Server) currentSelector(_ http.ResponseWriter, _ *http.Request, e *entry) (any, error) {
	return e.session.Selector(), nil
}

// selectorUpdate changes the dropdowns. Omitted fields are left alone; a
// present but null polygon selects all polygons.
type selectorUpdate struct {
	Group     *string         `json:"group"`
	Shapefile *string         `json:"shapefile"`
	Polygon   json.RawMessage `json:"polygon"`
}

func (s *Server) updateSelector(_ http.ResponseWriter, r *http.Request, e *entry) (any, error) {
	var req selectorUpdate
	if err := decode(r, &req); err != nil {
		return nil, err
	}

	sel := e.session.Selector()
	var err error
	if req.Group != nil && *req.Group != sel.Group {
		if sel, err = e.session.ChooseGroup(*req.Group); err != nil {
			return sel, err
		}
	}
	if req.Shapefile != nil && *req.Shapefile != sel.Shapefile {
		if sel, err = e.session.ChooseShapefile(*req.Shapefile); err != nil {
			return sel, err
		}
	}
	if len(req.Polygon) > 0 {
		var polygon *string
		if err := json.Unmarshal(req.Polygon, &polygon); err != nil {
			return sel, eris.Wrap(errBadRequest, "server: polygon must be a string or null")
		}
		return e.session.ChoosePolygon(polygon)
	}
	return sel, nil
}

func (s *Server) dataset(_ http.ResponseWriter, _ *http.Request, e *entry) (any, error) {
	return e.session.GetSelectedDataset(e.session.Selector()).FeatureCollection(), nil
}

func (s *Server) plot(_ http.ResponseWriter, r *http.Request, e *entry) (any, error) {
	return nil, e.session.PlotSelection(r.Context(), e.session.Selector())
}

func (s *Server) startMap(_ http.ResponseWriter, r *http.Request, e *entry) (any, error) {
	if err := e.session.StartMapSelection(r.Context(), e.session.Selector()); err != nil {
		return nil, err
	}
	return e.session.State(), nil
}

// event dispatches a map interaction: draw-tool, click, use-all or draw.
func (s *Server) event(_ http.ResponseWriter, r *http.Request, e *entry) (any, error) {
	var err error
	switch chi.URLParam(r, "event") {
	case "draw-tool":
		err = e.session.PickDrawTool()
	case "use-all":
		err = e.session.UseAll()
	case "click":
		var click selection.FeatureClick
		if err := decode(r, &click); err != nil {
			return nil, err
		}
		err = e.session.ClickFeature(click)
	case "draw":
		g, derr := decodeDrawn(r)
		if derr != nil {
			return nil, derr
		}
		err = e.session.FinishDrawing(g)
	default:
		return nil, eris.Wrapf(errBadRequest, "server: unknown event %q", chi.URLParam(r, "event"))
	}
	if err != nil {
		return nil, err
	}
	return e.session.State(), nil
}

// decodeDrawn accepts either a bare GeoJSON geometry or the Feature that
// Leaflet.draw produces.
func decodeDrawn(r *http.Request) (*geojson.Geometry, error) {
	var raw json.RawMessage
	if err := decode(r, &raw); err != nil {
		return nil, err
	}
	g, err := geomio.Parse(raw)
	if err != nil {
		return nil, err
	}
	return geomio.ToGeoJSON(g)
}

func (s *Server) confirmedSelection(_ http.ResponseWriter, _ *http.Request, e *entry) (any, error) {
	area, err := e.session.GetConfirmedSelection()
	if err != nil || area == nil {
		return nil, err
	}
	ha, err := area.AreaHectares()
	if err != nil {
		return nil, err
	}
	return areaResponse{
		Source:       area.Source,
		Label:        area.Label,
		Count:        area.Len(),
		AreaHectares: ha,
		Features:     area.FeatureCollection(),
	}, nil
}

func (s *Server) selectionMap(_ http.ResponseWriter, r *http.Request, e *entry) (any, error) {
	return nil, e.session.ShowSelectionOnMap(r.Context())
}

func (s *Server) bufferDistance(_ http.ResponseWriter, _ *http.Request, e *entry) (any, error) {
	st := e.session.State()
	return map[string]any{
		"text":             e.session.ShowActiveBufferDistance(),
		"meters":           st.BufferDistance,
		"confirmed_meters": st.ConfirmedBufferDistance,
	}, nil
}

// distanceRequest sets the pending buffer distance from a preset in meters
// or a custom entry in kilometers.
type distanceRequest struct {
	Meters *float64 `json:"meters"`
	Km     *float64 `json:"km"`
}

func (s *Server) setBufferDistance(_ http.ResponseWriter, r *http.Request, e *entry) (any, error) {
	var req distanceRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	var err error
	switch {
	case req.Meters != nil && req.Km != nil:
		return nil, eris.Wrap(errBadRequest, "server: give meters or km, not both")
	case req.Meters != nil:
		err = e.session.SelectBufferDistance(*req.Meters)
	case req.Km != nil:
		err = e.session.SetCustomBufferKm(*req.Km)
	default:
		return nil, eris.Wrap(errBadRequest, "server: meters or km is required")
	}
	if err != nil {
		return nil, err
	}
	return e.session.State(), nil
}

func (s *Server) confirmBufferDistance(_ http.ResponseWriter, _ *http.Request, e *entry) (any, error) {
	if err := e.session.ConfirmBufferDistance(); err != nil {
		return nil, err
	}
	return e.session.State(), nil
}

func (s *Server) bufferControls(_ http.ResponseWriter, _ *http.Request, e *entry) (any, error) {
	return e.session.ShowBufferControls(), nil
}

func (s *Server) applyBuffer(_ http.ResponseWriter, r *http.Request, e *entry) (any, error) {
	mode, err := buffer.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		return nil, eris.Wrap(errBadRequest, err.Error())
	}
	var preview *session.BufferPreview
	if mode == buffer.Exclude {
		preview, err = e.session.ApplyBufferExcluding(r.Context())
	} else {
		preview, err = e.session.ApplyBufferIncluding(r.Context())
	}
	if err != nil || preview == nil {
		return nil, err
	}
	g, err := geomio.ToGeoJSON(preview.Geometry)
	if err != nil {
		return nil, err
	}
	return previewResponse{Mode: preview.Mode, Distance: preview.Distance, Geometry: g}, nil
}

func (s *Server) confirmBuffer(_ http.ResponseWriter, _ *http.Request, e *entry) (any, error) {
	if err := e.session.ConfirmBuffer(); err != nil {
		return nil, err
	}
	return e.session.State(), nil
}

func (s *Server) help(_ http.ResponseWriter, _ *http.Request, e *entry) (any, error) {
	return e.session.Helper(), nil
}
