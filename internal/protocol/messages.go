package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerName      string `json:"player_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	PlayerID        string      `json:"player_id"`
	WorldParams     WorldParams `json:"world_params"`
	Spawn           [3]float32  `json:"spawn"`
}

type WorldParams struct {
	TickRateHz     int     `json:"tick_rate_hz"`
	Seed           int64   `json:"seed"`
	ChunkSize      float64 `json:"chunk_size"`
	LoadRadius     int     `json:"load_radius"`
	OriginLat      float64 `json:"origin_lat"`
	OriginLon      float64 `json:"origin_lon"`
	UnitsPerDegree float64 `json:"units_per_degree"`
}

// INPUT (client -> server): movement intent for the next ticks. Axes are
// clamped server-side; the client is not trusted.
type InputMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Forward         float32 `json:"forward"`
	Strafe          float32 `json:"strafe"`
	Jump            bool    `json:"jump,omitempty"`
	Climb           bool    `json:"climb,omitempty"`
}

// STATE (server -> client): authoritative player state, sent every tick.
type StateMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Tick            uint64     `json:"tick"`
	Position        [3]float32 `json:"position"`
	Velocity        [3]float32 `json:"velocity"`
	OnGround        bool       `json:"on_ground"`
	OnSlope         bool       `json:"on_slope,omitempty"`
	SlopeAngleDeg   float32    `json:"slope_angle_deg,omitempty"`
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	Elevation       float64    `json:"elevation"`
	ChunksLoaded    int        `json:"chunks_loaded"`
	ChunksTotal     int        `json:"chunks_total"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
