// Package diorama renders a layered, depth-staged background onto a 2D
// raster canvas and fakes camera rotation and perspective without a 3D
// rasterizer.
//
// # Overview
//
// A [Compositor] owns an ordered set of [Layer] values and one [Canvas].
// Callers add layers (which load asynchronously), optionally stage their
// depths, and call [Compositor.Render] whenever a frame is needed:
//
//	c, err := diorama.New(&diorama.FixedContainer{Width: 1280, Height: 720})
//	if err != nil {
//	    return err
//	}
//	if err := c.AddLayer(ctx, diorama.NewImageLayer("sky.png", 2)); err != nil {
//	    return err
//	}
//	if err := c.AddLayer(ctx, diorama.NewImageLayer("hills.png", 1)); err != nil {
//	    return err
//	}
//	c.StageDepths(staging.DefaultMaxDepth, staging.DefaultCurve)
//	c.SetRotation(0, transform.ToRadians(15), 0)
//	c.Render()
//	err = c.Canvas().SavePNG("frame.png")
//
// # Two models
//
// Pixels are produced by [LayerAffine], a 2D approximation of the global
// rotation (native Z rotation, yaw and pitch as scale plus skew, and a
// clamped depth scale) applied to the canvas per layer.
//
// The matrix pipeline in the transform and projector packages governs
// everything else: whether 3D is active, aspect-correct perspective, true
// vertex projection ([Compositor.ProjectLayer]) and optional culling
// ([WithCulling]). The two models share only [View] and layer depth.
//
// # Ordering
//
// A layer at depth d sits at world position (0, 0, -d), behind the origin
// plane as seen from the default camera at (0, 0, 5). Layers are painted
// far to near: depth descending, then stacking index descending. With
// default depths (depth equals stacking index) a lower stacking index is
// therefore closer to the viewer and painted on top, in 2D and 3D alike.
//
// # Coordinate System
//
// Canvas coordinates follow the usual raster convention:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//   - Angles in radians
package diorama
