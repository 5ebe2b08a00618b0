package coldroom

// Areas of the room envelope in m². The door is part of the wall panel
// and is not subtracted from Wall.
type Areas struct {
	Wall    float64 `json:"wall"`
	Ceiling float64 `json:"ceiling"`
	Floor   float64 `json:"floor"`
	Door    float64 `json:"door"`
}

func roomVolume(n Normalized) float64 {
	return n.Length * n.Width * n.Height
}

func envelopeAreas(n Normalized) Areas {
	footprint := n.Length * n.Width
	return Areas{
		Wall:    2 * (n.Length + n.Width) * n.Height,
		Ceiling: footprint,
		Floor:   footprint,
		Door:    n.DoorWidth * n.DoorHeight,
	}
}
