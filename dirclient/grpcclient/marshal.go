package grpcclient

import (
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtreemfs/presenced/dirclient"
)

// This file converts between the agent's domain types and the generic
// structpb.Struct envelopes the wire protocol carries. A structpb.Struct is
// itself a real, already-generated proto.Message (google.golang.org/protobuf
// well-known type), so this is a legitimate gRPC payload without requiring a
// project-specific .proto/protoc step for a handful of simple record shapes.

func endpointToValue(e dirclient.Endpoint) *structpb.Value {
	s, _ := structpb.NewStruct(map[string]any{
		"uuid":          e.UUID,
		"version":       float64(e.Version),
		"protocol":      string(e.Protocol),
		"address":       e.Address,
		"port":          float64(e.Port),
		"match_network": e.MatchNetwork,
		"ttl_s":         float64(e.TTLSeconds),
		"uri":           e.URI(),
	})
	return structpb.NewStructValue(s)
}

func valueToEndpoint(v *structpb.Value) dirclient.Endpoint {
	f := v.GetStructValue().GetFields()
	return dirclient.Endpoint{
		UUID:         f["uuid"].GetStringValue(),
		Version:      int64(f["version"].GetNumberValue()),
		Protocol:     dirclient.Scheme(f["protocol"].GetStringValue()),
		Address:      f["address"].GetStringValue(),
		Port:         int(f["port"].GetNumberValue()),
		MatchNetwork: f["match_network"].GetStringValue(),
		TTLSeconds:   int(f["ttl_s"].GetNumberValue()),
	}
}

func mappingSetToStruct(set dirclient.AddressMappingSet) *structpb.Struct {
	endpoints := make([]*structpb.Value, 0, len(set.Endpoints))
	for _, e := range set.Endpoints {
		endpoints = append(endpoints, endpointToValue(e))
	}
	s, _ := structpb.NewStruct(map[string]any{"uuid": set.UUID})
	s.Fields["endpoints"] = structpb.NewListValue(&structpb.ListValue{Values: endpoints})
	return s
}

func structToMappingSet(s *structpb.Struct) dirclient.AddressMappingSet {
	f := s.GetFields()
	set := dirclient.AddressMappingSet{UUID: f["uuid"].GetStringValue()}
	for _, v := range f["endpoints"].GetListValue().GetValues() {
		set.Endpoints = append(set.Endpoints, valueToEndpoint(v))
	}
	return set
}

func dataToStruct(data dirclient.OrderedData) *structpb.Struct {
	fields := make(map[string]*structpb.Value, data.Len())
	keys := data.Keys()
	data.Range(func(k, v string) {
		fields[k] = structpb.NewStringValue(v)
	})
	// "order" preserves the agent's insertion order explicitly, since a
	// structpb.Struct's map field does not guarantee iteration order on
	// the wire the way this agent's merge algorithm's ordering guarantees
	// (§4.3) require for a faithful round-trip.
	order := make([]*structpb.Value, 0, len(keys))
	for _, k := range keys {
		order = append(order, structpb.NewStringValue(k))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"values": structpb.NewStructValue(&structpb.Struct{Fields: fields}),
		"order":  structpb.NewListValue(&structpb.ListValue{Values: order}),
	}}
}

func structToData(s *structpb.Struct) dirclient.OrderedData {
	data := dirclient.NewOrderedData()
	f := s.GetFields()
	values := f["values"].GetStructValue().GetFields()
	for _, v := range f["order"].GetListValue().GetValues() {
		k := v.GetStringValue()
		data.Set(k, values[k].GetStringValue())
	}
	return data
}

func serviceRecordToStruct(rec dirclient.ServiceRecord) *structpb.Struct {
	s, _ := structpb.NewStruct(map[string]any{
		"uuid":    rec.UUID,
		"type":    string(rec.Type),
		"name":    rec.Name,
		"version": float64(rec.Version),
	})
	s.Fields["data"] = structpb.NewStructValue(dataToStruct(rec.Data))
	return s
}

func structToServiceRecord(s *structpb.Struct) dirclient.ServiceRecord {
	f := s.GetFields()
	return dirclient.ServiceRecord{
		UUID:    f["uuid"].GetStringValue(),
		Type:    dirclient.ServiceType(f["type"].GetStringValue()),
		Name:    f["name"].GetStringValue(),
		Version: int64(f["version"].GetNumberValue()),
		Data:    structToData(f["data"].GetStructValue()),
	}
}

func configurationToStruct(cfg dirclient.ConfigurationBlob) *structpb.Struct {
	params := make([]*structpb.Value, 0, len(cfg.Parameters))
	for _, kv := range cfg.Parameters {
		pv, _ := structpb.NewStruct(map[string]any{"key": kv.Key, "value": kv.Value})
		params = append(params, structpb.NewStructValue(pv))
	}
	s, _ := structpb.NewStruct(map[string]any{
		"uuid":    cfg.UUID,
		"version": float64(cfg.Version),
	})
	s.Fields["parameters"] = structpb.NewListValue(&structpb.ListValue{Values: params})
	return s
}

func structToConfiguration(s *structpb.Struct) dirclient.ConfigurationBlob {
	f := s.GetFields()
	cfg := dirclient.ConfigurationBlob{
		UUID:    f["uuid"].GetStringValue(),
		Version: int64(f["version"].GetNumberValue()),
	}
	for _, v := range f["parameters"].GetListValue().GetValues() {
		pf := v.GetStructValue().GetFields()
		cfg.Parameters = append(cfg.Parameters, dirclient.KeyValuePair{
			Key:   pf["key"].GetStringValue(),
			Value: pf["value"].GetStringValue(),
		})
	}
	return cfg
}
