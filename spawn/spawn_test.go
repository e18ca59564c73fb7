package spawn

import (
	"testing"
)

func loc(x, y, z float64) Location {
	return Location{World: "world", X: x, Y: y, Z: z}
}

func TestParseNode(t *testing.T) {
	cases := []struct {
		node              string
		name, team, class string
		wantErr           bool
	}{
		{node: "spawn", name: "spawn"},
		{node: "red_spawn", name: "spawn", team: "red"},
		{node: "red_spawn_archer", name: "spawn", team: "red", class: "archer"},
		{node: "a_b_c_d", wantErr: true},
	}

	for _, c := range cases {
		name, team, class, err := ParseNode(c.node)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseNode(%q): expected error", c.node)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseNode(%q): unexpected error %v", c.node, err)
			continue
		}
		if name != c.name || team != c.team || class != c.class {
			t.Errorf("ParseNode(%q) = (%q, %q, %q), expected (%q, %q, %q)",
				c.node, name, team, class, c.name, c.team, c.class)
		}
	}
}

func TestSpawn_KeyRoundTrip(t *testing.T) {
	sp := Spawn{Name: NameSpawn, Team: "red", Class: "archer"}
	key := sp.Key()
	if key != "red_spawn_archer" {
		t.Fatalf("Expected key red_spawn_archer, got %s", key)
	}

	name, team, class, err := ParseNode(key)
	if err != nil {
		t.Fatalf("ParseNode(%q): %v", key, err)
	}
	if name != sp.Name || team != sp.Team || class != sp.Class {
		t.Errorf("Round trip changed identity: (%q, %q, %q)", name, team, class)
	}
}

func TestManager_ResolveFallbackChain(t *testing.T) {
	m := NewManager()
	m.Register(Spawn{Name: NameSpawn, Loc: loc(0, 0, 0)})
	m.Register(Spawn{Name: NameSpawn, Team: "red", Loc: loc(1, 0, 0)})
	m.Register(Spawn{Name: NameSpawn, Team: "red", Class: "archer", Loc: loc(2, 0, 0)})

	sp, ok := m.Resolve(NameSpawn, "red", "archer")
	if !ok || sp.Loc.X != 2 {
		t.Errorf("Expected exact triple match at x=2, got %+v (ok=%v)", sp, ok)
	}

	sp, ok = m.Resolve(NameSpawn, "red", "mage")
	if !ok || sp.Loc.X != 1 {
		t.Errorf("Expected (name, team) fallback at x=1, got %+v (ok=%v)", sp, ok)
	}

	sp, ok = m.Resolve(NameSpawn, "blue", "mage")
	if !ok || sp.Loc.X != 0 {
		t.Errorf("Expected plain name fallback at x=0, got %+v (ok=%v)", sp, ok)
	}

	if _, ok := m.Resolve(NameLounge, "", ""); ok {
		t.Error("Resolve should miss an unregistered name")
	}
}

func TestManager_ResolveOrFallback(t *testing.T) {
	m := NewManager()
	m.Register(Spawn{Name: NameSpectator, Loc: loc(9, 9, 9)})

	sp, ok := m.ResolveOrFallback(NameSpawn, "red", "", NameSpectator)
	if !ok || sp.Name != NameSpectator {
		t.Errorf("Expected spectator fallback, got %+v (ok=%v)", sp, ok)
	}
}

func TestManager_RegisterReplacesSameTriple(t *testing.T) {
	m := NewManager()
	m.Register(Spawn{Name: NameSpawn, Team: "red", Loc: loc(1, 0, 0)})
	m.Register(Spawn{Name: NameSpawn, Team: "red", Loc: loc(5, 0, 0)})

	if n := len(m.Spawns()); n != 1 {
		t.Fatalf("Expected 1 spawn after replacement, got %d", n)
	}
	sp, _ := m.Resolve(NameSpawn, "red", "")
	if sp.Loc.X != 5 {
		t.Errorf("Expected replacement to win, got x=%v", sp.Loc.X)
	}
}

func TestManager_DistributeWrapsAround(t *testing.T) {
	m := NewManager()
	m.Register(Spawn{Name: NameSpawn, Team: "red", Loc: loc(0, 0, 0)})
	m.Register(Spawn{Name: NameSpawn, Team: "red", Loc: loc(1, 0, 0)})

	members := []string{"p1", "p2", "p3", "p4", "p5"}
	assignment := m.Distribute("red", members)

	if len(assignment) != 5 {
		t.Fatalf("Expected 5 assignments, got %d", len(assignment))
	}

	// Both points must be used before any reuse.
	used := map[float64]int{}
	for _, sp := range assignment {
		used[sp.Loc.X]++
	}
	if len(used) != 2 {
		t.Errorf("Expected both spawn points used, got %v", used)
	}
	// 5 members across 2 points: 3 on one, 2 on the other.
	if used[0] != 3 || used[1] != 2 {
		t.Errorf("Expected 3/2 split, got %v", used)
	}

	// A sixth member wraps onto the first point again.
	assignment = m.Distribute("red", append(members, "p6"))
	if assignment["p6"].Loc.X != 1 {
		t.Errorf("Expected p6 at x=1, got %v", assignment["p6"].Loc.X)
	}
}

func TestManager_DistributeFallsBackToGenericSpawns(t *testing.T) {
	m := NewManager()
	m.Register(Spawn{Name: NameSpawn, Loc: loc(7, 0, 0)})

	assignment := m.Distribute("red", []string{"p1"})
	if sp, ok := assignment["p1"]; !ok || sp.Loc.X != 7 {
		t.Errorf("Expected generic spawn at x=7, got %+v", assignment)
	}
}

func TestManager_DistributeTeams(t *testing.T) {
	m := NewManager()
	m.Register(Spawn{Name: NameSpawn, Team: "red", Loc: loc(0, 0, 0)})
	m.Register(Spawn{Name: NameSpawn, Team: "blue", Loc: loc(10, 0, 0)})

	assignment := m.DistributeTeams(map[string][]string{
		"red":  {"r1", "r2"},
		"blue": {"b1"},
	})

	if len(assignment) != 3 {
		t.Fatalf("Expected 3 assignments, got %d", len(assignment))
	}
	if assignment["b1"].Loc.X != 10 {
		t.Errorf("Expected b1 on the blue point, got %v", assignment["b1"].Loc.X)
	}
	if assignment["r1"].Loc.X != 0 || assignment["r2"].Loc.X != 0 {
		t.Errorf("Expected red members on the red point, got %v / %v",
			assignment["r1"].Loc.X, assignment["r2"].Loc.X)
	}
}

func TestManager_NearestBlock(t *testing.T) {
	m := NewManager()
	m.RegisterBlock(Block{Name: "flag", Loc: BlockLocation{World: "world", X: 0, Y: 0, Z: 0}})
	m.RegisterBlock(Block{Name: "flag", Loc: BlockLocation{World: "world", X: 10, Y: 0, Z: 0}})
	m.RegisterBlock(Block{Name: "button", Loc: BlockLocation{World: "world", X: 1, Y: 0, Z: 0}})

	b, ok := m.NearestBlock("flag", BlockLocation{World: "world", X: 8, Y: 0, Z: 0})
	if !ok || b.Loc.X != 10 {
		t.Errorf("Expected the flag at x=10, got %+v (ok=%v)", b, ok)
	}

	if _, ok := m.NearestBlock("flag", BlockLocation{World: "nether", X: 0, Y: 0, Z: 0}); ok {
		t.Error("Blocks in another world must not match")
	}
}

func TestManager_NearestBlockTieKeepsEarlier(t *testing.T) {
	m := NewManager()
	m.RegisterBlock(Block{Name: "flag", Team: "red", Loc: BlockLocation{World: "world", X: -2, Y: 0, Z: 0}})
	m.RegisterBlock(Block{Name: "flag", Team: "blue", Loc: BlockLocation{World: "world", X: 2, Y: 0, Z: 0}})

	b, ok := m.NearestBlock("flag", BlockLocation{World: "world", X: 0, Y: 0, Z: 0})
	if !ok || b.Team != "red" {
		t.Errorf("Expected the earlier-registered block on a tie, got %+v", b)
	}
}

func TestSpawn_ResolvedAppliesOffset(t *testing.T) {
	sp := Spawn{Name: NameSpawn, Loc: loc(1, 2, 3), Offset: &Vector{X: 0.5, Y: 1, Z: 0}}
	r := sp.Resolved()
	if r.X != 1.5 || r.Y != 3 || r.Z != 3 {
		t.Errorf("Expected offset applied, got %+v", r)
	}
}

func TestParseLocation(t *testing.T) {
	l, err := ParseLocation("world,1.5,64,-3")
	if err != nil {
		t.Fatalf("ParseLocation: %v", err)
	}
	if l.World != "world" || l.X != 1.5 || l.Y != 64 || l.Z != -3 {
		t.Errorf("Unexpected location %+v", l)
	}

	l, err = ParseLocation("world,0,0,0,90,45")
	if err != nil {
		t.Fatalf("ParseLocation with angles: %v", err)
	}
	if l.Yaw != 90 || l.Pitch != 45 {
		t.Errorf("Expected yaw/pitch parsed, got %+v", l)
	}

	if _, err := ParseLocation("world,1,2"); err == nil {
		t.Error("Expected error for too few parts")
	}
}
