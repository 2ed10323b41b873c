package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/mola"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/persistence/indexdb"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/world"
)

const maxPatchResolution = 512

// registerTerrainAPI exposes the effective terrain over HTTP in the same
// shape the upstream elevation service uses, so clients and tools can query
// either interchangeably.
func registerTerrainAPI(mux *http.ServeMux, w *world.World) {
	mux.HandleFunc("/api/mars/elevation", func(rw http.ResponseWriter, r *http.Request) {
		lat, err1 := parseFloat(r, "lat")
		lon, err2 := parseFloat(r, "lon")
		if err1 != nil || err2 != nil {
			http.Error(rw, "lat and lon are required", http.StatusBadRequest)
			return
		}
		elev := w.Provider().ElevationAtPlanet(lat, lon)
		writeJSON(rw, mola.PointSample{
			Latitude:  lat,
			Longitude: lon,
			Elevation: elev,
			Source:    "local",
		})
	})

	mux.HandleFunc("/api/mars/chunk", func(rw http.ResponseWriter, r *http.Request) {
		minLat, err1 := parseFloat(r, "minLat")
		maxLat, err2 := parseFloat(r, "maxLat")
		minLon, err3 := parseFloat(r, "minLon")
		maxLon, err4 := parseFloat(r, "maxLon")
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			http.Error(rw, "minLat, maxLat, minLon, maxLon are required", http.StatusBadRequest)
			return
		}
		if maxLat <= minLat || maxLon <= minLon {
			http.Error(rw, "empty patch rect", http.StatusBadRequest)
			return
		}
		res := 64
		if s := r.URL.Query().Get("resolution"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil || v < 2 || v > maxPatchResolution {
				http.Error(rw, "bad resolution", http.StatusBadRequest)
				return
			}
			res = v
		}

		// Rows run south to north, matching the upstream elevation service.
		elev := make([]float32, res*res)
		for j := 0; j < res; j++ {
			lat := minLat + (maxLat-minLat)*float64(j)/float64(res-1)
			for i := 0; i < res; i++ {
				lon := minLon + (maxLon-minLon)*float64(i)/float64(res-1)
				elev[j*res+i] = w.Provider().ElevationAtPlanet(lat, lon)
			}
		}
		writeJSON(rw, mola.Patch{
			MinLat:     minLat,
			MaxLat:     maxLat,
			MinLon:     minLon,
			MaxLon:     maxLon,
			Width:      res,
			Height:     res,
			Elevation:  elev,
			Resolution: res,
			DataSource: "local",
		})
	})
}

func metricsHandler(w *world.World, idx *indexdb.SQLiteIndex) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		st := w.Status()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP marsinterloper_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE marsinterloper_world_tick gauge\n")
		fmt.Fprintf(rw, "marsinterloper_world_tick %d\n", st.Tick)

		fmt.Fprintf(rw, "# HELP marsinterloper_resident_chunks Loaded chunk count.\n")
		fmt.Fprintf(rw, "# TYPE marsinterloper_resident_chunks gauge\n")
		fmt.Fprintf(rw, "marsinterloper_resident_chunks %d\n", st.ResidentChunks)

		fmt.Fprintf(rw, "# HELP marsinterloper_player_elevation Player Y position.\n")
		fmt.Fprintf(rw, "# TYPE marsinterloper_player_elevation gauge\n")
		fmt.Fprintf(rw, "marsinterloper_player_elevation %.3f\n", st.Position[1])

		og := 0
		if st.OnGround {
			og = 1
		}
		fmt.Fprintf(rw, "# HELP marsinterloper_player_on_ground Whether the player is grounded.\n")
		fmt.Fprintf(rw, "# TYPE marsinterloper_player_on_ground gauge\n")
		fmt.Fprintf(rw, "marsinterloper_player_on_ground %d\n", og)

		if idx != nil {
			fmt.Fprintf(rw, "# HELP marsinterloper_telemetry_dropped Telemetry writes shed under load.\n")
			fmt.Fprintf(rw, "# TYPE marsinterloper_telemetry_dropped counter\n")
			fmt.Fprintf(rw, "marsinterloper_telemetry_dropped %d\n", idx.Dropped())
		}
	}
}

func parseFloat(r *http.Request, key string) (float64, error) {
	return strconv.ParseFloat(r.URL.Query().Get(key), 64)
}

func writeJSON(rw http.ResponseWriter, v any) {
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(v)
}
