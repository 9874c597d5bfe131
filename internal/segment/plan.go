package segment

// FramePlan is one frame extraction point inside a chunk.
type FramePlan struct {
	Index  int
	Offset float64
}

// ChunkPlan is the temporal window of one chunk before any extraction runs.
type ChunkPlan struct {
	Index  int
	Start  float64
	End    float64
	Frames []FramePlan
}

// PlanChunks partitions [0, duration) into windows of chunkDuration seconds.
// The final window is clamped to the total duration; every other window is
// exactly chunkDuration long. Frames are spaced chunkDuration/framesPerChunk
// apart starting at the window start.
func PlanChunks(duration float64, chunkDuration, framesPerChunk int) []ChunkPlan {
	if duration <= 0 || chunkDuration <= 0 {
		return nil
	}
	interval := float64(chunkDuration) / float64(framesPerChunk)
	var plans []ChunkPlan
	for index, start := 0, 0.0; start < duration; index, start = index+1, start+float64(chunkDuration) {
		end := start + float64(chunkDuration)
		if end > duration {
			end = duration
		}
		plan := ChunkPlan{Index: index, Start: start, End: end}
		for j := 0; j < framesPerChunk; j++ {
			plan.Frames = append(plan.Frames, FramePlan{
				Index:  j,
				Offset: start + float64(j)*interval,
			})
		}
		plans = append(plans, plan)
	}
	return plans
}
