package view

import "go.uber.org/zap"

// AddProperty makes value available to every template under key. Calling it
// again with the same key updates the value. Function values stay callable:
//
//	v.AddProperty("appName", "billing").
//		AddProperty("now", func() string { return time.Now().Format(time.RFC3339) })
//
//	{{ appName }} rendered at {{ now() }}
func (v *View) AddProperty(key string, value any) *View {
	if err := v.engine.SetGlobal(key, value); err != nil {
		v.logger.Warn("cannot add property", zap.String("property", key), zap.Error(err))
	}
	return v
}

// RemoveProperty drops a property added with AddProperty. Unknown keys are
// ignored.
func (v *View) RemoveProperty(key string) *View {
	if v.engine.DeleteGlobal(key) {
		v.logger.Debug("removed property", zap.String("property", key))
	}
	return v
}

// HasProperty reports whether a property is set.
func (v *View) HasProperty(key string) bool {
	_, ok := v.engine.Global(key)
	return ok
}

// Properties returns a copy of the global properties.
func (v *View) Properties() map[string]any {
	return v.engine.Globals()
}
