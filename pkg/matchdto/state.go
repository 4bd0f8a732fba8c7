package matchdto

// Server envelope kinds.
const (
	KindWelcome = "welcome"
	KindState   = "state"
	KindToast   = "toast"
)

// ServerEnvelope is one outbound websocket message: a connection greeting,
// a full state snapshot for the receiving viewer, or a transient toast line.
type ServerEnvelope struct {
	Kind     string    `json:"kind"`
	Room     string    `json:"room,omitempty"`
	Identity string    `json:"identity,omitempty"`
	State    *Snapshot `json:"state,omitempty"`
	Text     string    `json:"text,omitempty"`
}

// Snapshot is a per-viewer projection of one room. Exactly the sections
// relevant to the phase are populated; an ended snapshot keeps the last game
// section so the final board stays displayable until the room resets.
type Snapshot struct {
	Phase string      `json:"phase"`
	Lobby *LobbyState `json:"lobby,omitempty"`
	Game  *GameState  `json:"game,omitempty"`
	End   *EndState   `json:"end,omitempty"`
}

type LobbyState struct {
	Mode               string `json:"mode"`
	Difficulty         string `json:"difficulty"`
	WaitingForOpponent bool   `json:"waitingForOpponent"`
}

type GameState struct {
	Position    string `json:"position"`
	SideToMove  string `json:"sideToMove"`
	ViewerColor string `json:"viewerColor,omitempty"`
	Status      string `json:"status"`
	Winner      string `json:"winner,omitempty"`
	LastMove    string `json:"lastMove,omitempty"`
}

type EndState struct {
	Result string `json:"result"`
	Reason string `json:"reason"`
}

func WelcomeMessage(roomID, identity string) ServerEnvelope {
	return ServerEnvelope{Kind: KindWelcome, Room: roomID, Identity: identity}
}

func StateMessage(s *Snapshot) ServerEnvelope {
	return ServerEnvelope{Kind: KindState, State: s}
}

func ToastMessage(text string) ServerEnvelope {
	return ServerEnvelope{Kind: KindToast, Text: text}
}
