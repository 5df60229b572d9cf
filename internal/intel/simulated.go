package intel

import "time"

// simulatedRecords is the static fallback dataset served when the upstream
// feed is unreachable. It intentionally spans several malware families, IOC
// formats, sources and confidence tiers so the dashboard graph stays
// representative offline.
var simulatedRecords = []IndicatorRecord{
	{
		ID: "sim-1001", IOC: "185.220.101.45:443",
		ThreatType: "botnet_cc", ThreatTypeDesc: "Botnet command & control server",
		IOCType: "ip:port", IOCTypeDesc: "IP address with port",
		Malware: "win.emotet", MalwarePrintable: "Emotet",
		Confidence: 90,
		FirstSeen:  simTime("2025-07-02 06:41:00"), LastSeen: simTime("2025-08-20 13:05:00"),
		Reference: "https://threatfox.abuse.ch/ioc/1001/", Reporter: "abuse_ch", Source: "ThreatFox",
		Relationships: []Relationship{
			{Kind: RelationDNSMapping, Target: "update-service.top", Timestamp: simTime("2025-08-19 22:10:00")},
		},
	},
	{
		ID: "sim-1002", IOC: "d41d8cd98f00b204e9800998ecf8427e1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d",
		ThreatType: "payload", ThreatTypeDesc: "Malware payload",
		IOCType: "sha256_hash", IOCTypeDesc: "SHA256 file hash",
		Malware: "win.emotet", MalwarePrintable: "Emotet",
		Confidence: 82,
		FirstSeen:  simTime("2025-07-14 11:02:00"), LastSeen: simTime("2025-08-18 09:30:00"),
		Reference: "https://threatfox.abuse.ch/ioc/1002/", Reporter: "Cryptolaemus1", Source: "ThreatFox",
		Relationships: []Relationship{
			{Kind: RelationDownloadedFrom, Target: "hxxp://update-service.top/inst.bin"},
			{Kind: RelationPEParent, Target: "invoice_2025-07.doc"},
		},
	},
	{
		ID: "sim-1003", IOC: "update-service.top",
		ThreatType: "payload_delivery", ThreatTypeDesc: "Payload delivery domain",
		IOCType: "domain", IOCTypeDesc: "Domain name",
		Malware: "win.emotet", MalwarePrintable: "Emotet",
		Confidence: 68,
		FirstSeen:  simTime("2025-06-28 17:55:00"), LastSeen: simTime("2025-08-20 02:14:00"),
		Reference: "https://threatfox.abuse.ch/ioc/1003/", Reporter: "abuse_ch", Source: "ThreatFox",
	},
	{
		ID: "sim-1004", IOC: "45.133.216.90:8443",
		ThreatType: "botnet_cc", ThreatTypeDesc: "Botnet command & control server",
		IOCType: "ip:port", IOCTypeDesc: "IP address with port",
		Malware: "win.cobalt_strike", MalwarePrintable: "Cobalt Strike",
		Confidence: 95,
		FirstSeen:  simTime("2025-08-01 04:12:00"), LastSeen: simTime("2025-08-21 19:47:00"),
		Reference: "https://threatfox.abuse.ch/ioc/1004/", Reporter: "drb_ra", Source: "ThreatFox",
	},
	{
		ID: "sim-1005", IOC: "hxxps://cdn-metrics.live/beacon.dll",
		ThreatType: "payload_delivery", ThreatTypeDesc: "Payload delivery URL",
		IOCType: "url", IOCTypeDesc: "URL",
		Malware: "win.cobalt_strike", MalwarePrintable: "Cobalt Strike",
		Confidence: 71,
		FirstSeen:  simTime("2025-08-05 12:30:00"), LastSeen: simTime("2025-08-17 08:02:00"),
		Reference: "https://threatfox.abuse.ch/ioc/1005/", Reporter: "drb_ra", Source: "OTX",
		Relationships: []Relationship{
			{Kind: RelationContainedIn, Target: "beacon_pack.zip"},
		},
	},
	{
		ID: "sim-1006", IOC: "9f2b1c7e5a8d3f6b0c4e7a9d2f5b8c1e4a7d0f3b6c9e2a5d8f1b4c7e0a3d6f9b",
		ThreatType: "payload", ThreatTypeDesc: "Malware payload",
		IOCType: "sha256_hash", IOCTypeDesc: "SHA256 file hash",
		Malware: "win.agent_tesla", MalwarePrintable: "Agent Tesla",
		Confidence: 55,
		FirstSeen:  simTime("2025-07-22 09:18:00"), LastSeen: simTime("2025-08-10 16:40:00"),
		Reference: "https://threatfox.abuse.ch/ioc/1006/", Reporter: "JAMESWT_MHT", Source: "MalwareBazaar",
	},
	{
		ID: "sim-1007", IOC: "mail-secure-login.net",
		ThreatType: "phishing", ThreatTypeDesc: "Credential phishing domain",
		IOCType: "domain", IOCTypeDesc: "Domain name",
		Malware: "win.agent_tesla", MalwarePrintable: "Agent Tesla",
		Confidence: 35,
		FirstSeen:  simTime("2025-08-08 20:03:00"), LastSeen: simTime("2025-08-15 05:56:00"),
		Reference: "https://threatfox.abuse.ch/ioc/1007/", Reporter: "phishunt_io", Source: "OTX",
		Relationships: []Relationship{
			{Kind: RelationDNSMapping, Target: "193.142.59.12"},
		},
	},
	{
		ID: "sim-1008", IOC: "103.75.190.11:2222",
		ThreatType: "botnet_cc", ThreatTypeDesc: "Botnet command & control server",
		IOCType: "ip:port", IOCTypeDesc: "IP address with port",
		Malware: "", MalwarePrintable: "",
		Confidence: 28,
		FirstSeen:  simTime("2025-08-12 01:25:00"), LastSeen: simTime("2025-08-22 23:11:00"),
		Reference: "https://threatfox.abuse.ch/ioc/1008/", Reporter: "anonymous", Source: "",
	},
}

// SimulatedRecords returns a copy of the fallback dataset, normalized the
// same way live records are (sentinels applied to the deliberately sparse
// entries).
func SimulatedRecords() []IndicatorRecord {
	out := make([]IndicatorRecord, len(simulatedRecords))
	copy(out, simulatedRecords)
	for i := range out {
		if out[i].MalwarePrintable == "" {
			out[i].MalwarePrintable = UnknownMalwareLabel
		}
		if out[i].Source == "" {
			out[i].Source = UnknownKey
		}
	}
	return out
}

// SimulatedResponse wraps the fallback dataset in a feed envelope. cause is
// surfaced as error_context so the UI can show why the live feed was skipped.
func SimulatedResponse(cause string) FeedResponse {
	return FeedResponse{
		QueryStatus:  "ok",
		Data:         SimulatedRecords(),
		Source:       SourceSimulated,
		ErrorContext: cause,
	}
}

func simTime(s string) time.Time {
	t, _ := time.Parse("2006-01-02 15:04:05", s)
	return t.UTC()
}
