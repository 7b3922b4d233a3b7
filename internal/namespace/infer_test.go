package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/projnorm/internal/project"
	"github.com/leapstack-labs/projnorm/internal/testutil"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"app", "app"},
		{"image-picker", "image.picker"},
		{"feature:login", "feature.login"},
		{"a-b:c-d", "a.b.c.d"},
		{"already.dotted", "already.dotted"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.id), tt.id)
	}
}

func TestInfer(t *testing.T) {
	tests := []struct {
		name         string
		sub          *project.Subproject
		wantNS       string
		wantChanged  bool
		wantInferred bool
	}{
		{
			name:         "library without namespace",
			sub:          &project.Subproject{ID: "image-picker", Plugins: []string{project.PluginLibrary}},
			wantNS:       "com.sparkle.image.picker",
			wantChanged:  true,
			wantInferred: true,
		},
		{
			name:         "application without namespace",
			sub:          &project.Subproject{ID: "app", Plugins: []string{project.PluginApplication}},
			wantNS:       "com.sparkle.app",
			wantChanged:  true,
			wantInferred: true,
		},
		{
			name:        "explicit namespace is kept",
			sub:         &project.Subproject{ID: "camera", Plugins: []string{project.PluginLibrary}, Namespace: "io.flutter.camera"},
			wantNS:      "io.flutter.camera",
			wantChanged: false,
		},
		{
			name:        "non-android subproject is skipped",
			sub:         &project.Subproject{ID: "tooling", Plugins: []string{"java-library"}},
			wantNS:      "",
			wantChanged: false,
		},
		{
			name:         "colon separated id",
			sub:          &project.Subproject{ID: "feature:login-ui", Plugins: []string{project.PluginLibrary}},
			wantNS:       "com.sparkle.feature.login.ui",
			wantChanged:  true,
			wantInferred: true,
		},
	}

	inf := New("", testutil.NewTestLogger(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := inf.Infer(tt.sub)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantNS, tt.sub.Namespace)
			assert.Equal(t, tt.wantInferred, tt.sub.NamespaceInferred)
		})
	}
}

func TestInfer_Idempotent(t *testing.T) {
	inf := New("", nil)
	s := &project.Subproject{ID: "path-provider", Plugins: []string{project.PluginLibrary}}

	assert.True(t, inf.Infer(s))
	first := s.Namespace
	assert.False(t, inf.Infer(s))
	assert.Equal(t, first, s.Namespace)
}

func TestInfer_CustomPrefix(t *testing.T) {
	inf := New("org.example.", nil)
	s := &project.Subproject{ID: "maps", Plugins: []string{project.PluginLibrary}}
	inf.Infer(s)
	assert.Equal(t, "org.example.maps", s.Namespace)
}

func TestRegister_DeferredUntilEvaluated(t *testing.T) {
	inf := New("", nil)
	s := &project.Subproject{ID: "camera", Plugins: []string{project.PluginLibrary}}

	require.NoError(t, inf.Register(s))
	assert.Empty(t, s.Namespace, "inference must wait for evaluation")

	require.NoError(t, s.Evaluation().MarkEvaluated())
	assert.Equal(t, "com.sparkle.camera", s.Namespace)
}

func TestRegister_ImmediateWhenEvaluated(t *testing.T) {
	inf := New("", nil)
	s := &project.Subproject{ID: "camera", Plugins: []string{project.PluginLibrary}}
	require.NoError(t, s.Evaluation().MarkEvaluated())

	require.NoError(t, inf.Register(s))
	assert.Equal(t, "com.sparkle.camera", s.Namespace)
}

func TestRegister_Twice(t *testing.T) {
	inf := New("", nil)
	s := &project.Subproject{ID: "camera", Plugins: []string{project.PluginLibrary}}

	require.NoError(t, inf.Register(s))
	require.NoError(t, inf.Register(s))
	require.NoError(t, s.Evaluation().MarkEvaluated())
	assert.Equal(t, "com.sparkle.camera", s.Namespace)
}

func TestFindCollisions(t *testing.T) {
	inf := New("", nil)
	subs := []*project.Subproject{
		{ID: "image-picker", Plugins: []string{project.PluginLibrary}},
		{ID: "image:picker", Plugins: []string{project.PluginLibrary}},
		{ID: "camera", Plugins: []string{project.PluginLibrary}},
		{ID: "legacy", Plugins: []string{project.PluginLibrary}, Namespace: "com.sparkle.camera"},
		{ID: "tooling"},
	}
	for _, s := range subs {
		inf.Infer(s)
	}

	got := FindCollisions(subs)
	assert.Equal(t, []Collision{
		{Namespace: "com.sparkle.camera", Subprojects: []string{"camera", "legacy"}},
		{Namespace: "com.sparkle.image.picker", Subprojects: []string{"image-picker", "image:picker"}},
	}, got)
}

func TestFindCollisions_None(t *testing.T) {
	subs := []*project.Subproject{{ID: "a", Namespace: "x.a"}, {ID: "b", Namespace: "x.b"}}
	assert.Empty(t, FindCollisions(subs))
}
