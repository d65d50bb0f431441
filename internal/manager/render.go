package manager

import (
	"fmt"

	"github.com/nerrad567/screener-core/internal/component"
	"github.com/nerrad567/screener-core/internal/scene"
)

// RenderScene composes a scene's slots. Editor renders keep component audio
// and disable page interaction; output renders do the opposite. Media-backed
// components resolve their sources in the background and report a loading
// status until the next render.
//
// Returns ErrSceneNotFound if the scene does not exist.
func (m *Manager) RenderScene(sceneID string, editor bool) ([]scene.Placement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc := m.sceneLocked(sceneID)
	if sc == nil {
		return nil, fmt.Errorf("%w: %q", ErrSceneNotFound, sceneID)
	}

	return sc.Render(scene.RenderContext{
		RenderContext: component.RenderContext{
			Editor: editor,
			Media:  m,
			Now:    m.clock.Now(),
		},
		Lookup: m.componentLocked,
	}), nil
}
