package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timopomer/splendor-ai/internal/auth"
	"github.com/timopomer/splendor-ai/internal/policy"
	"github.com/timopomer/splendor-ai/internal/room"
	"github.com/timopomer/splendor-ai/internal/view"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	issuer, err := auth.NewIssuer("test-secret")
	require.NoError(t, err)
	mgr := room.NewManager(issuer, policy.Factory{}, time.Second, log)
	srv := httptest.NewServer(NewRouter(mgr, log))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func createRoom(t *testing.T, srv *httptest.Server, players int) seatGrant {
	t.Helper()
	var grant seatGrant
	resp := doJSON(t, http.MethodPost, srv.URL+"/rooms", "",
		createRoomRequest{NumPlayers: players, PlayerName: "alice"}, &grant)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return grant
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndInspectRoom(t *testing.T) {
	srv := testServer(t)
	grant := createRoom(t, srv, 2)

	assert.NotEmpty(t, grant.SeatToken)
	assert.Equal(t, 0, grant.Seat)
	assert.Equal(t, 2, grant.Room.NumPlayers)

	var info room.Info
	resp := doJSON(t, http.MethodGet, srv.URL+"/rooms/"+grant.Room.Code, "", nil, &info)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, grant.Room.Code, info.Code)
	assert.Equal(t, "alice", info.Seats[0].Name)
}

func TestCreateRoomBadBody(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Post(srv.URL+"/rooms", "application/json", bytes.NewBufferString("{nope"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var grant seatGrant
	resp = doJSON(t, http.MethodPost, srv.URL+"/rooms", "",
		createRoomRequest{NumPlayers: 9}, &grant)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownRoomIs404(t *testing.T) {
	srv := testServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/rooms/ZZZZZZ", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJoinAndStartFlow(t *testing.T) {
	srv := testServer(t)
	grant := createRoom(t, srv, 2)
	base := srv.URL + "/rooms/" + grant.Room.Code

	var joined seatGrant
	resp := doJSON(t, http.MethodPost, base+"/join", "", joinRequest{PlayerName: "bob"}, &joined)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, joined.Seat)

	var v view.GameView
	resp = doJSON(t, http.MethodPost, base+"/start", grant.SeatToken, nil, &v)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, v.YourSeat)
	assert.True(t, v.IsYourTurn)

	resp = doJSON(t, http.MethodGet, base+"/state", joined.SeatToken, nil, &v)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, v.YourSeat)
	assert.False(t, v.IsYourTurn)
}

func TestConfigureSeatEndpoint(t *testing.T) {
	srv := testServer(t)
	grant := createRoom(t, srv, 2)
	base := srv.URL + "/rooms/" + grant.Room.Code

	var info room.Info
	resp := doJSON(t, http.MethodPost, base+"/seats", grant.SeatToken,
		configureSeatRequest{Seat: 1, Kind: room.SeatBot, Policy: policy.IDRandom}, &info)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, room.SeatBot, info.Seats[1].Kind)

	// Unknown policy id is a protocol error.
	resp = doJSON(t, http.MethodPost, base+"/seats", grant.SeatToken,
		configureSeatRequest{Seat: 1, Kind: room.SeatBot, Policy: "oracle"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthStatusCodes(t *testing.T) {
	srv := testServer(t)
	grant := createRoom(t, srv, 2)
	base := srv.URL + "/rooms/" + grant.Room.Code

	// Missing and garbage tokens.
	resp := doJSON(t, http.MethodGet, base+"/state", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = doJSON(t, http.MethodPost, base+"/start", "garbage", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A joined guest is authenticated but not the host.
	var joined seatGrant
	doJSON(t, http.MethodPost, base+"/join", "", joinRequest{PlayerName: "bob"}, &joined)
	resp = doJSON(t, http.MethodPost, base+"/start", joined.SeatToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSubmitAction(t *testing.T) {
	srv := testServer(t)
	grant := createRoom(t, srv, 2)
	base := srv.URL + "/rooms/" + grant.Room.Code

	var joined seatGrant
	doJSON(t, http.MethodPost, base+"/join", "", joinRequest{PlayerName: "bob"}, &joined)
	resp := doJSON(t, http.MethodPost, base+"/start", grant.SeatToken, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	take := actionRequest{}
	require.NoError(t, json.Unmarshal([]byte(
		`{"action":{"type":"take_three_different","gems":["diamond","sapphire","emerald"]}}`), &take))

	var out actionResponse
	resp = doJSON(t, http.MethodPost, base+"/actions", grant.SeatToken, take, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, out.Success)
	require.NotNil(t, out.View)
	assert.Equal(t, 1, out.View.CurrentSeat)

	// Acting out of turn is a rule rejection, still HTTP 200.
	var rejected actionResponse
	resp = doJSON(t, http.MethodPost, base+"/actions", grant.SeatToken, take, &rejected)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, rejected.Success)
	assert.Equal(t, "not_your_turn", string(rejected.Kind))
	assert.Nil(t, rejected.View)
}

func TestSubmitActionMissingGemIsProtocolError(t *testing.T) {
	srv := testServer(t)
	grant := createRoom(t, srv, 2)
	base := srv.URL + "/rooms/" + grant.Room.Code

	doJSON(t, http.MethodPost, base+"/join", "", joinRequest{PlayerName: "bob"}, nil)
	resp := doJSON(t, http.MethodPost, base+"/start", grant.SeatToken, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// take_two_same with no gem key must not decode as a diamond take.
	req, err := http.NewRequest(http.MethodPost, base+"/actions",
		bytes.NewBufferString(`{"action":{"type":"take_two_same"}}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+grant.SeatToken)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	var v view.GameView
	resp = doJSON(t, http.MethodGet, base+"/state", grant.SeatToken, nil, &v)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, v.Players[0].Tokens.Total())
	assert.True(t, v.IsYourTurn)
}

func TestSubmitActionBeforeStart(t *testing.T) {
	srv := testServer(t)
	grant := createRoom(t, srv, 2)
	base := srv.URL + "/rooms/" + grant.Room.Code

	var out actionResponse
	resp := doJSON(t, http.MethodPost, base+"/actions", grant.SeatToken, actionRequest{}, &out)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
