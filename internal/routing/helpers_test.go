package routing

// campecheStops mirrors testdata/koox_stops_routes.json.
func campecheStops() []Stop {
	return []Stop{
		{ID: 1, Name: "Centro Historico", Latitude: 19.8448, Longitude: -90.5365, Routes: []string{"1", "3"}},
		{ID: 2, Name: "Mercado Principal", Latitude: 19.8432, Longitude: -90.5310, Routes: []string{"1", "2"}},
		{ID: 3, Name: "Malecon", Latitude: 19.8500, Longitude: -90.5400, Routes: []string{"3", "Lerma"}},
		{ID: 4, Name: "San Roman", Latitude: 19.8380, Longitude: -90.5420, Routes: []string{"2", "4"}},
		{ID: 5, Name: "Santa Ana", Latitude: 19.8480, Longitude: -90.5280, Routes: []string{"1", "5"}},
		{ID: 6, Name: "Universidad Autonoma", Latitude: 19.8350, Longitude: -90.5500, Routes: []string{"4"}},
		{ID: 7, Name: "Terminal ADO", Latitude: 19.8280, Longitude: -90.5330, Routes: []string{"2", "5"}},
		{ID: 8, Name: "Plaza Galerias", Latitude: 19.8300, Longitude: -90.5150, Routes: []string{"5"}},
		{ID: 9, Name: "Hospital General", Latitude: 19.8410, Longitude: -90.5180, Routes: []string{"1", "5"}},
		{ID: 10, Name: "Lerma", Latitude: 19.8050, Longitude: -90.5950, Routes: []string{"Lerma"}},
		{ID: 11, Name: "Siglo XXI", Latitude: 19.8200, Longitude: -90.5450, Routes: []string{"4", "6"}},
		{ID: 12, Name: "Samula", Latitude: 19.8150, Longitude: -90.5250, Routes: []string{"6"}},
	}
}

// detourStops has a two-ride path with a long detour (A-X-C) and a
// three-ride path along the straight line (A-Y-Z-C).
func detourStops() []Stop {
	return []Stop{
		{ID: 1, Name: "A", Latitude: 0, Longitude: 0, Routes: []string{"r1", "r3"}},
		{ID: 2, Name: "X", Latitude: 0.05, Longitude: 0.05, Routes: []string{"r1", "r2"}},
		{ID: 3, Name: "C", Latitude: 0, Longitude: 0.1, Routes: []string{"r2", "r5"}},
		{ID: 4, Name: "Y", Latitude: 0, Longitude: 0.03, Routes: []string{"r3", "r4"}},
		{ID: 5, Name: "Z", Latitude: 0, Longitude: 0.06, Routes: []string{"r4", "r5"}},
	}
}
