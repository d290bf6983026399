package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/xtreemfs/presenced/dirclient"
	"github.com/xtreemfs/presenced/dirclient/fake"
)

func dataOf(pairs ...[2]string) dirclient.OrderedData {
	d := dirclient.NewOrderedData()
	for _, p := range pairs {
		d.Set(p[0], p[1])
	}
	return d
}

func newTestAgent(client dirclient.Client) *Agent {
	return New("test", client, "U1", func() []Registration { return nil }, Options{})
}

func lastRegistered(t *testing.T, client *fake.Client) dirclient.ServiceRecord {
	t.Helper()
	if len(client.Registered) == 0 {
		t.Fatal("no ServiceRegister call recorded")
	}
	return client.Registered[len(client.Registered)-1]
}

// S3 — refresh with prior static attribute (invariants 1, 2, 3).
func TestMergeOnePreservesStaticAttributesAndEchoesVersion(t *testing.T) {
	client := fake.New()
	client.SeedService(dirclient.ServiceRecord{
		UUID:    "U1",
		Type:    dirclient.ServiceTypeOSD,
		Version: 7,
		Data:    dataOf([2]string{dirclient.StaticStatusKey, "AVAILABLE"}, [2]string{"static.load", "0.3"}),
	})
	a := newTestAgent(client)

	err := a.mergeOne(context.Background(), Registration{
		UUID: "U1",
		Type: dirclient.ServiceTypeOSD,
		Data: dataOf([2]string{"free_bytes", "1000"}),
	})
	if err != nil {
		t.Fatalf("mergeOne: %v", err)
	}

	rec := lastRegistered(t, client)
	if rec.Version != 7 {
		t.Fatalf("version = %d, want 7 (echoed from service_get_by_uuid)", rec.Version)
	}
	want := map[string]string{
		dirclient.StaticStatusKey: "AVAILABLE",
		"static.load":             "0.3",
		"free_bytes":              "1000",
	}
	if rec.Data.Len() != len(want) {
		t.Fatalf("data has %d keys, want %d: %v", rec.Data.Len(), len(want), rec.Data.Keys())
	}
	for k, v := range want {
		got, ok := rec.Data.Get(k)
		if !ok || got != v {
			t.Errorf("data[%q] = %q, %v; want %q", k, got, ok, v)
		}
	}
}

// Invariant 2 — status defaulting when neither prior nor generator supply it.
func TestMergeOneDefaultsStatusWhenAbsent(t *testing.T) {
	client := fake.New()
	a := newTestAgent(client)

	if err := a.mergeOne(context.Background(), Registration{UUID: "U1", Type: dirclient.ServiceTypeOSD, Data: dataOf()}); err != nil {
		t.Fatalf("mergeOne: %v", err)
	}
	rec := lastRegistered(t, client)
	got, ok := rec.Data.Get(dirclient.StaticStatusKey)
	if !ok {
		t.Fatal("static.status missing from written record")
	}
	if got != dirclient.StatusAvailable {
		t.Errorf("static.status = %q, want %q", got, dirclient.StatusAvailable)
	}
	if rec.Version != 0 {
		t.Errorf("version = %d, want 0 (no prior record)", rec.Version)
	}
}

// S4 — volume MRC replica extension (invariants 4, 6).
func TestMergeOneVolumeMRCExtension(t *testing.T) {
	client := fake.New()
	client.SeedService(dirclient.ServiceRecord{
		UUID: "Vol1",
		Type: dirclient.ServiceTypeVolume,
		Data: dataOf([2]string{"mrc", "M1"}, [2]string{dirclient.StaticStatusKey, "AVAILABLE"}),
	})
	a := newTestAgent(client)

	err := a.mergeOne(context.Background(), Registration{
		UUID: "Vol1",
		Type: dirclient.ServiceTypeVolume,
		Data: dataOf([2]string{"mrc", "M2"}, [2]string{"uuid", "Vol1"}),
	})
	if err != nil {
		t.Fatalf("mergeOne: %v", err)
	}

	rec := lastRegistered(t, client)
	want := map[string]string{
		dirclient.StaticStatusKey: "AVAILABLE",
		"mrc":                     "M1",
		"mrc2":                    "M2",
		"uuid":                    "Vol1",
	}
	if rec.Data.Len() != len(want) {
		t.Fatalf("data = %v, want keys %v", rec.Data.Keys(), want)
	}
	for k, v := range want {
		got, ok := rec.Data.Get(k)
		if !ok || got != v {
			t.Errorf("data[%q] = %q, %v; want %q", k, got, ok, v)
		}
	}

	wantOrder := []string{dirclient.StaticStatusKey, "mrc", "mrc2", "uuid"}
	gotOrder := rec.Data.Keys()
	if len(gotOrder) != len(wantOrder) {
		t.Fatalf("key order = %v, want %v", gotOrder, wantOrder)
	}
	for i, k := range wantOrder {
		if gotOrder[i] != k {
			t.Errorf("key order[%d] = %q, want %q (full: %v)", i, gotOrder[i], k, gotOrder)
		}
	}
}

// S5 — volume MRC already present: no new key is added (invariants 4, 5).
func TestMergeOneVolumeMRCAlreadyPresent(t *testing.T) {
	client := fake.New()
	client.SeedService(dirclient.ServiceRecord{
		UUID: "Vol1",
		Type: dirclient.ServiceTypeVolume,
		Data: dataOf([2]string{"mrc", "M1"}, [2]string{"mrc2", "M2"}),
	})
	a := newTestAgent(client)

	err := a.mergeOne(context.Background(), Registration{
		UUID: "Vol1",
		Type: dirclient.ServiceTypeVolume,
		Data: dataOf([2]string{"mrc", "M1"}),
	})
	if err != nil {
		t.Fatalf("mergeOne: %v", err)
	}

	rec := lastRegistered(t, client)
	mrcValues := map[string]bool{}
	count := 0
	rec.Data.Range(func(k, v string) {
		if dirclient.HasMRCPrefix(k) {
			count++
			mrcValues[v] = true
		}
	})
	if count != 2 {
		t.Fatalf("found %d mrc* keys, want 2 (no mrc3 added)", count)
	}
	if !mrcValues["M1"] || !mrcValues["M2"] {
		t.Fatalf("mrc values = %v, want {M1, M2}", mrcValues)
	}
}

// Invariant 5 — MRC idempotence across two identical consecutive cycles.
func TestMergeOneVolumeMRCIdempotentAcrossCycles(t *testing.T) {
	client := fake.New()
	client.SeedService(dirclient.ServiceRecord{
		UUID: "Vol1",
		Type: dirclient.ServiceTypeVolume,
		Data: dataOf([2]string{"mrc", "M1"}),
	})
	a := newTestAgent(client)

	reg := Registration{UUID: "Vol1", Type: dirclient.ServiceTypeVolume, Data: dataOf([2]string{"mrc", "M2"})}
	if err := a.mergeOne(context.Background(), reg); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if err := a.mergeOne(context.Background(), reg); err != nil {
		t.Fatalf("second cycle: %v", err)
	}

	rec := lastRegistered(t, client)
	values := map[string]bool{}
	rec.Data.Range(func(k, v string) {
		if dirclient.HasMRCPrefix(k) {
			values[v] = true
		}
	})
	if len(values) != 2 || !values["M1"] || !values["M2"] {
		t.Fatalf("mrc values after two identical cycles = %v, want exactly {M1, M2}", values)
	}
}

// Missing mrc key on a VOLUME registration is a typed error, not a panic
// (the REDESIGN decision recorded in SPEC_FULL.md §7).
func TestMergeOneVolumeMissingMRCReturnsTypedError(t *testing.T) {
	client := fake.New()
	client.SeedService(dirclient.ServiceRecord{UUID: "Vol1", Type: dirclient.ServiceTypeVolume, Data: dataOf()})
	a := newTestAgent(client)

	err := a.mergeOne(context.Background(), Registration{UUID: "Vol1", Type: dirclient.ServiceTypeVolume, Data: dataOf()})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ErrMissingMRC) {
		t.Fatalf("error = %v, want ErrMissingMRC", err)
	}
}

// A VOLUME registration with no prior record at all takes the default
// merge branch, not the volume-replica branch (prior must exist to merge).
func TestMergeOneVolumeNoPriorTakesDefaultBranch(t *testing.T) {
	client := fake.New()
	a := newTestAgent(client)

	err := a.mergeOne(context.Background(), Registration{
		UUID: "Vol1",
		Type: dirclient.ServiceTypeVolume,
		Data: dataOf([2]string{"mrc", "M1"}),
	})
	if err != nil {
		t.Fatalf("mergeOne: %v", err)
	}
	rec := lastRegistered(t, client)
	got, ok := rec.Data.Get("mrc")
	if !ok || got != "M1" {
		t.Fatalf("data[mrc] = %q, %v; want M1", got, ok)
	}
}
