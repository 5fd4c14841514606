// Demonstrates a full emulation session: drive a device frame by frame,
// record the action stream, export it, then replay it onto a second
// device and watch the same events fire again.
package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akeido/marionette"
	"github.com/akeido/marionette/record"
	"github.com/akeido/marionette/spatial"
)

func newDevice(name string) *marionette.Device {
	device, err := marionette.NewDevice(marionette.DeviceConfig{
		Name: name,
		Controllers: map[marionette.Handedness]marionette.ControllerConfig{
			marionette.HandednessLeft:  marionette.DefaultControllerConfig(),
			marionette.HandednessRight: marionette.DefaultControllerConfig(),
		},
	})
	if err != nil {
		panic(err)
	}
	return device
}

func main() {
	device := newDevice("live-rig")

	right := device.Controller(marionette.HandednessRight)
	right.SetConnected(true)

	device.Events.Subscribe("selectstart", func(e marionette.Event) {
		fmt.Printf("live:   selectstart from %s controller\n", e.Source.Handedness())
	})
	device.Events.Subscribe("selectend", func(e marionette.Event) {
		fmt.Printf("live:   selectend from %s controller\n", e.Source.Handedness())
	})

	recorder := record.NewRecorder(device, nil)

	// Sixty frames at ~60Hz: the controller sweeps forward while the
	// trigger is held for the middle third.
	const dt = 1000.0 / 60.0
	for frame := 0; frame < 60; frame++ {
		progress := float64(frame) / 59.0
		right.SetPose(
			mgl64.Vec3{0.25, 1.5 - 0.2*progress, -0.4 - 0.3*progress},
			mgl64.QuatRotate(0.3*progress, mgl64.Vec3{1, 0, 0}),
		)

		switch frame {
		case 20:
			right.UpdateButtonValue("trigger", 1)
		case 40:
			right.UpdateButtonValue("trigger", 0)
		}

		device.OnFrameStart()
		recorder.RecordFrame(dt * float64(frame))

		// Pose queries happen strictly after the frame-start phase.
		if frame == 30 {
			pose, err := spatial.ResolvePose(right.TargetRaySpace(), device.ViewerSpace)
			if err != nil {
				panic(err)
			}
			fmt.Printf("live:   ray in viewer frame at frame 30: %v\n", pose.Position())
		}
	}

	export, err := record.NewExport(recorder.Log())
	if err != nil {
		panic(err)
	}
	data, _ := json.Marshal(export)
	fmt.Printf("export: %d frames, %d bytes, digest %s\n",
		len(export.Recording.Frames), len(data), export.Digest)

	// Replay onto a fresh device.
	replayRig := newDevice("replay-rig")
	replayRig.Events.Subscribe("selectstart", func(e marionette.Event) {
		fmt.Printf("replay: selectstart from %s controller\n", e.Source.Handedness())
	})
	replayRig.Events.Subscribe("selectend", func(e marionette.Event) {
		fmt.Printf("replay: selectend from %s controller\n", e.Source.Handedness())
	})

	player, err := record.NewPlayer(replayRig, export.Recording, nil)
	if err != nil {
		panic(err)
	}
	player.OnComplete(func() { fmt.Println("replay: complete") })

	start := time.Now()
	player.Start(start)
	for !player.Done() {
		player.Tick(time.Now())
		replayRig.OnFrameStart()
		frameInterval := dt * float64(time.Millisecond)
		time.Sleep(time.Duration(frameInterval))
	}
}
