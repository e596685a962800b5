package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hubsync/hubsync/internal/model"
)

// PlaytimeSubmission records one playtime value pushed to the fake service
type PlaytimeSubmission struct {
	DefinitionID string
	UserID       model.UserID
	Hours        float64
}

// FakeAPI is an in-memory stand-in for the remote account service, served
// over httptest. Seed state with the helper methods, point a remote.Client
// at URL() and assert on the recorded mutations afterwards.
type FakeAPI struct {
	server *httptest.Server

	mu sync.Mutex

	bundleID     string
	definitionID string

	users       map[model.PlayerID]*model.User
	bans        map[model.PlayerID][]model.Ban
	groups      []model.Group
	memberships map[model.UserID]map[model.GroupID]struct{}
	rewards     map[model.PlayerID][]*model.AppliedReward
	adverts     []model.Advert
	warnings    map[model.UserID][]model.Warning

	// Recorded mutations
	CreatedUsers    []model.PlayerID
	CreatedBans     []model.UserID
	Unbanned        []model.UserID
	AddedGroups     map[model.UserID][]model.GroupID
	RemovedGroups   map[model.UserID][]model.GroupID
	ExecutedRewards []model.RewardID
	Playtime        []PlaytimeSubmission
	Heartbeats      []model.Heartbeat
	CreatedWarnings []model.Warning
}

// NewFakeAPI starts a fake remote service with the given bundle id
func NewFakeAPI(bundleID string) *FakeAPI {
	f := &FakeAPI{
		bundleID:      bundleID,
		users:         make(map[model.PlayerID]*model.User),
		bans:          make(map[model.PlayerID][]model.Ban),
		memberships:   make(map[model.UserID]map[model.GroupID]struct{}),
		rewards:       make(map[model.PlayerID][]*model.AppliedReward),
		warnings:      make(map[model.UserID][]model.Warning),
		AddedGroups:   make(map[model.UserID][]model.GroupID),
		RemovedGroups: make(map[model.UserID][]model.GroupID),
	}

	r := mux.NewRouter()
	r.HandleFunc("/user/", f.handleCreateUser).Methods(http.MethodPost)
	r.HandleFunc("/user/{id}", f.handleGetUser).Methods(http.MethodGet)
	r.HandleFunc("/user/{id}/ban", f.handleUnban).Methods(http.MethodPatch)
	r.HandleFunc("/user/{id}/group", f.handleGetUserGroups).Methods(http.MethodGet)
	r.HandleFunc("/user/{id}/membership", f.handleAddMembership).Methods(http.MethodPost)
	r.HandleFunc("/user/{id}/membership", f.handleRemoveAllMemberships).Methods(http.MethodDelete)
	r.HandleFunc("/user/{id}/membership/by-group", f.handleRemoveMembership).Methods(http.MethodDelete)
	r.HandleFunc("/user/attribute/", f.handleSendPlaytime).Methods(http.MethodPost)
	r.HandleFunc("/user/attribute/definition", f.handleCreateDefinition).Methods(http.MethodPost)
	r.HandleFunc("/user/attribute/definition/playtime", f.handleGetDefinition).Methods(http.MethodGet)
	r.HandleFunc("/server/{id}", f.handleGetServer).Methods(http.MethodGet)
	r.HandleFunc("/server/{id}", f.handleHeartbeat).Methods(http.MethodPatch)
	r.HandleFunc("/server/bundle/{bundle}/ban", f.handleFetchBans).Methods(http.MethodGet)
	r.HandleFunc("/ban/", f.handleCreateBan).Methods(http.MethodPost)
	r.HandleFunc("/group/", f.handleFetchGroups).Methods(http.MethodGet)
	r.HandleFunc("/packet/reward/applied/user", f.handleFetchRewards).Methods(http.MethodGet)
	r.HandleFunc("/packet/reward/applied/{id}", f.handleMarkExecuted).Methods(http.MethodPatch)
	r.HandleFunc("/advert/", f.handleFetchAdverts).Methods(http.MethodGet)
	r.HandleFunc("/warning/", f.handleFetchWarnings).Methods(http.MethodGet)
	r.HandleFunc("/warning/", f.handleCreateWarning).Methods(http.MethodPost)

	f.server = httptest.NewServer(r)
	return f
}

// URL returns the fake service's base URL
func (f *FakeAPI) URL() string {
	return f.server.URL
}

// Close shuts down the underlying test server
func (f *FakeAPI) Close() {
	f.server.Close()
}

// SeedUser registers a remote user for a player id and returns it
func (f *FakeAPI) SeedUser(playerID model.PlayerID, username string) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	user := &model.User{
		ID:         model.UserID(uuid.NewString()),
		Type:       model.PlatformType,
		Identifier: playerID,
		Username:   username,
	}
	f.users[playerID] = user
	return user
}

// SeedBan records an active remote ban for a player. A nil endsOn means
// permanent.
func (f *FakeAPI) SeedBan(playerID model.PlayerID, reason string, endsOn *time.Time) model.Ban {
	f.mu.Lock()
	defer f.mu.Unlock()

	ban := model.Ban{
		ID:     model.BanID(uuid.NewString()),
		Reason: reason,
		Status: "ACTIVE",
		EndsOn: endsOn,
		Active: true,
	}
	if user, ok := f.users[playerID]; ok {
		ban.User = &model.UserRef{ID: user.ID, Identifier: playerID}
	}
	f.bans[playerID] = append(f.bans[playerID], ban)
	return ban
}

// SeedGroup registers a group definition with one mapping to a local group
// name
func (f *FakeAPI) SeedGroup(name, mappedName, bundleID string) model.Group {
	f.mu.Lock()
	defer f.mu.Unlock()

	g := model.Group{
		ID:   model.GroupID(uuid.NewString()),
		Name: name,
	}
	g.Mappings = []model.GroupMapping{{
		ID:             uuid.NewString(),
		GroupID:        g.ID,
		Name:           mappedName,
		ServerBundleID: bundleID,
	}}
	f.groups = append(f.groups, g)
	return g
}

// SeedMembership makes the user a member of the group
func (f *FakeAPI) SeedMembership(userID model.UserID, groupID model.GroupID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addMembershipLocked(userID, groupID)
}

// SeedReward records an open reward grant for a player
func (f *FakeAPI) SeedReward(playerID model.PlayerID, reward *model.AppliedReward) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if reward.ID == "" {
		reward.ID = model.RewardID(uuid.NewString())
	}
	if reward.User == nil {
		if user, ok := f.users[playerID]; ok {
			reward.User = &model.UserRef{ID: user.ID, Identifier: playerID}
		}
	}
	f.rewards[playerID] = append(f.rewards[playerID], reward)
}

// SeedAdverts replaces the advert list
func (f *FakeAPI) SeedAdverts(adverts ...model.Advert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adverts = adverts
}

// SeedWarning records an active warning for a user and returns it
func (f *FakeAPI) SeedWarning(userID model.UserID, reason string) model.Warning {
	f.mu.Lock()
	defer f.mu.Unlock()

	w := model.Warning{
		ID:     uuid.NewString(),
		Reason: reason,
		Active: true,
	}
	f.warnings[userID] = append(f.warnings[userID], w)
	return w
}

// SeedPlaytimeDefinition marks the playtime attribute definition as existing
func (f *FakeAPI) SeedPlaytimeDefinition(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.definitionID = id
}

// ActiveBans returns the players with at least one active remote ban
func (f *FakeAPI) ActiveBans() []model.PlayerID {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []model.PlayerID
	for id, list := range f.bans {
		for _, b := range list {
			if b.Active {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}

// Memberships returns the group ids the user is currently a member of
func (f *FakeAPI) Memberships(userID model.UserID) []model.GroupID {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []model.GroupID
	for id := range f.memberships[userID] {
		ids = append(ids, id)
	}
	return ids
}

func (f *FakeAPI) handleGetUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[model.PlayerID(mux.Vars(r)["id"])]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, user)
}

func (f *FakeAPI) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifier model.PlayerID `json:"identifier"`
		Username   string         `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	user := &model.User{
		ID:         model.UserID(uuid.NewString()),
		Type:       model.PlatformType,
		Identifier: body.Identifier,
		Username:   body.Username,
	}
	f.users[body.Identifier] = user
	f.CreatedUsers = append(f.CreatedUsers, body.Identifier)
	writeJSON(w, user)
}

func (f *FakeAPI) handleGetServer(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, model.ServerInfo{ServerBundleID: f.bundleID})
}

func (f *FakeAPI) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var hb model.Heartbeat
	if err := json.NewDecoder(r.Body).Decode(&hb); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Heartbeats = append(f.Heartbeats, hb)
	writeJSON(w, model.ServerInfo{ServerBundleID: f.bundleID})
}

func (f *FakeAPI) handleFetchBans(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	active := make(map[model.PlayerID][]model.Ban)
	for id, list := range f.bans {
		for _, b := range list {
			if b.Active {
				active[id] = append(active[id], b)
			}
		}
	}
	writeJSON(w, active)
}

func (f *FakeAPI) handleCreateBan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID model.UserID `json:"user_id"`
		Reason string       `json:"reason"`
		Length *int64       `json:"length"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ban := model.Ban{
		ID:     model.BanID(uuid.NewString()),
		Reason: body.Reason,
		Length: body.Length,
		Status: "ACTIVE",
		Active: true,
	}
	if body.Length != nil {
		ends := time.Now().Add(time.Duration(*body.Length) * time.Second)
		ban.EndsOn = &ends
	}

	for playerID, user := range f.users {
		if user.ID == body.UserID {
			ban.User = &model.UserRef{ID: user.ID, Identifier: playerID}
			f.bans[playerID] = append(f.bans[playerID], ban)
			break
		}
	}
	f.CreatedBans = append(f.CreatedBans, body.UserID)
	writeJSON(w, ban)
}

func (f *FakeAPI) handleUnban(w http.ResponseWriter, r *http.Request) {
	userID := model.UserID(mux.Vars(r)["id"])

	f.mu.Lock()
	defer f.mu.Unlock()

	var last model.Ban
	for playerID, user := range f.users {
		if user.ID != userID {
			continue
		}
		list := f.bans[playerID]
		for i := range list {
			list[i].Active = false
			list[i].Status = "UNBANNED"
			last = list[i]
		}
		break
	}
	f.Unbanned = append(f.Unbanned, userID)
	writeJSON(w, last)
}

func (f *FakeAPI) handleFetchGroups(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	groups := f.groups
	if groups == nil {
		groups = []model.Group{}
	}
	writeJSON(w, groups)
}

func (f *FakeAPI) handleGetUserGroups(w http.ResponseWriter, r *http.Request) {
	userID := model.UserID(mux.Vars(r)["id"])

	f.mu.Lock()
	defer f.mu.Unlock()

	groups := []model.Group{}
	for _, g := range f.groups {
		if _, ok := f.memberships[userID][g.ID]; ok {
			groups = append(groups, g)
		}
	}
	writeJSON(w, groups)
}

func (f *FakeAPI) handleAddMembership(w http.ResponseWriter, r *http.Request) {
	userID := model.UserID(mux.Vars(r)["id"])

	var body struct {
		GroupID model.GroupID `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.addMembershipLocked(userID, body.GroupID)
	f.AddedGroups[userID] = append(f.AddedGroups[userID], body.GroupID)
	writeJSON(w, model.Membership{ID: uuid.NewString()})
}

func (f *FakeAPI) handleRemoveMembership(w http.ResponseWriter, r *http.Request) {
	userID := model.UserID(mux.Vars(r)["id"])
	groupID := model.GroupID(r.URL.Query().Get("group_id"))

	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.memberships[userID], groupID)
	f.RemovedGroups[userID] = append(f.RemovedGroups[userID], groupID)
	writeJSON(w, model.Membership{ID: uuid.NewString()})
}

func (f *FakeAPI) handleRemoveAllMemberships(w http.ResponseWriter, r *http.Request) {
	userID := model.UserID(mux.Vars(r)["id"])

	f.mu.Lock()
	defer f.mu.Unlock()

	for groupID := range f.memberships[userID] {
		f.RemovedGroups[userID] = append(f.RemovedGroups[userID], groupID)
	}
	delete(f.memberships, userID)
	writeJSON(w, model.Membership{ID: uuid.NewString()})
}

func (f *FakeAPI) handleFetchRewards(w http.ResponseWriter, r *http.Request) {
	wanted := make(map[model.UserID]struct{})
	for _, id := range r.URL.Query()["user_id"] {
		wanted[model.UserID(id)] = struct{}{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	result := make(map[model.PlayerID][]*model.AppliedReward)
	for playerID, list := range f.rewards {
		user, ok := f.users[playerID]
		if !ok {
			continue
		}
		if _, ok := wanted[user.ID]; !ok {
			continue
		}
		for _, rw := range list {
			if rw.Status == "" || rw.Status == "OPEN" {
				result[playerID] = append(result[playerID], rw)
			}
		}
	}
	writeJSON(w, result)
}

func (f *FakeAPI) handleMarkExecuted(w http.ResponseWriter, r *http.Request) {
	rewardID := model.RewardID(mux.Vars(r)["id"])

	var body struct {
		ExecutedOn []string `json:"executed_on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.ExecutedRewards = append(f.ExecutedRewards, rewardID)
	for _, list := range f.rewards {
		for _, rw := range list {
			if rw.ID == rewardID {
				rw.ExecutedOn = append(rw.ExecutedOn, body.ExecutedOn...)
				rw.Status = "EXECUTED"
				writeJSON(w, rw)
				return
			}
		}
	}
	writeJSON(w, model.AppliedReward{ID: rewardID, Status: "EXECUTED"})
}

func (f *FakeAPI) handleGetDefinition(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.definitionID == "" {
		writeError(w, http.StatusNotFound, "definition not found")
		return
	}
	writeJSON(w, map[string]string{"id": f.definitionID})
}

func (f *FakeAPI) handleCreateDefinition(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.definitionID = uuid.NewString()
	writeJSON(w, map[string]string{"id": f.definitionID})
}

func (f *FakeAPI) handleSendPlaytime(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DefinitionID string       `json:"definition_id"`
		UserID       model.UserID `json:"user_id"`
		Value        float64      `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Playtime = append(f.Playtime, PlaytimeSubmission{
		DefinitionID: body.DefinitionID,
		UserID:       body.UserID,
		Hours:        body.Value,
	})
	writeJSON(w, map[string]string{"id": uuid.NewString()})
}

func (f *FakeAPI) handleFetchAdverts(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	adverts := f.adverts
	if adverts == nil {
		adverts = []model.Advert{}
	}
	writeJSON(w, adverts)
}

func (f *FakeAPI) handleFetchWarnings(w http.ResponseWriter, r *http.Request) {
	userID := model.UserID(r.URL.Query().Get("user_id"))

	f.mu.Lock()
	defer f.mu.Unlock()

	warnings := []model.Warning{}
	for _, wn := range f.warnings[userID] {
		if wn.Active {
			warnings = append(warnings, wn)
		}
	}
	writeJSON(w, warnings)
}

func (f *FakeAPI) handleCreateWarning(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID model.UserID `json:"user_id"`
		Reason string       `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	wn := model.Warning{
		ID:     uuid.NewString(),
		Reason: body.Reason,
		Active: true,
	}
	f.warnings[body.UserID] = append(f.warnings[body.UserID], wn)
	f.CreatedWarnings = append(f.CreatedWarnings, wn)
	writeJSON(w, wn)
}

func (f *FakeAPI) addMembershipLocked(userID model.UserID, groupID model.GroupID) {
	if f.memberships[userID] == nil {
		f.memberships[userID] = make(map[model.GroupID]struct{})
	}
	f.memberships[userID][groupID] = struct{}{}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}
