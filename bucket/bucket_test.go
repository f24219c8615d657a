package bucket

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"foldersort/fsops"
	"foldersort/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqRandom replays a fixed sequence of values, reduced modulo n
type seqRandom struct {
	values []int
	next   int
}

func (s *seqRandom) Intn(n int) int {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v % n
}

// dirScorer scores by the name of the directory holding the sampled file
type dirScorer struct {
	scores  map[string]float64
	errs    map[string]error
	sampled []string
}

func (d *dirScorer) Score(file, sample string) (float64, error) {
	d.sampled = append(d.sampled, sample)
	dir := filepath.Base(filepath.Dir(sample))
	if err, ok := d.errs[dir]; ok {
		return 0, err
	}
	return d.scores[dir], nil
}

func (d *dirScorer) sampledDirs() []string {
	var dirs []string
	for _, s := range d.sampled {
		dirs = append(dirs, filepath.Base(filepath.Dir(s)))
	}
	return dirs
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(filepath.Base(path)), 0o644))
}

// layout creates root with one sample file per named subdirectory plus a loose new.jpg
func layout(t *testing.T, dirs ...string) (root, file string) {
	t.Helper()
	root = t.TempDir()
	for _, d := range dirs {
		writeFile(t, filepath.Join(root, d, "sample.jpg"))
	}
	file = filepath.Join(root, "new.jpg")
	writeFile(t, file)
	return root, file
}

func newTestAssigner(scorer Scorer, rnd ...int) *Assigner {
	return NewAssigner(fsops.New(), scorer, WithRandomSource(&seqRandom{values: rnd}))
}

func TestAssignWithoutSubdirectoriesCreatesBucket(t *testing.T) {
	root, file := layout(t)
	scorer := &dirScorer{}

	result, err := newTestAssigner(scorer, 234).Assign(file, root)
	require.NoError(t, err)

	assert.Equal(t, types.DecisionNewBucket, result.Decision.Kind)
	assert.Equal(t, filepath.Join(root, "folder_1234"), result.Decision.Target)
	assert.Equal(t, filepath.Join(root, "folder_1234", "new.jpg"), result.Destination)
	assert.FileExists(t, result.Destination)
	assert.NoFileExists(t, file)
	assert.Empty(t, scorer.sampled)
}

func TestDecidePolicy(t *testing.T) {
	tests := []struct {
		name      string
		scores    map[string]float64
		wantKind  types.DecisionKind
		wantDir   string
		wantScore float64
		wantExit  bool
		sampled   []string
	}{
		{
			name:      "first of equal scores wins",
			scores:    map[string]float64{"a": 0.6, "b": 0.6, "c": 0.55},
			wantKind:  types.DecisionExisting,
			wantDir:   "a",
			wantScore: 0.6,
			sampled:   []string{"a", "b", "c"},
		},
		{
			name:      "higher earlier score beats later lower score",
			scores:    map[string]float64{"a": 0.65, "b": 0.6},
			wantKind:  types.DecisionExisting,
			wantDir:   "a",
			wantScore: 0.65,
			sampled:   []string{"a", "b"},
		},
		{
			name:      "later higher score replaces earlier",
			scores:    map[string]float64{"a": 0.55, "b": 0.65},
			wantKind:  types.DecisionExisting,
			wantDir:   "b",
			wantScore: 0.65,
			sampled:   []string{"a", "b"},
		},
		{
			name:      "early exit stops the scan",
			scores:    map[string]float64{"a": 0.75, "b": 0.99},
			wantKind:  types.DecisionExisting,
			wantDir:   "a",
			wantScore: 0.75,
			wantExit:  true,
			sampled:   []string{"a"},
		},
		{
			name:      "early exit only after a better score",
			scores:    map[string]float64{"a": 0.6, "b": 0.71, "c": 0.9},
			wantKind:  types.DecisionExisting,
			wantDir:   "b",
			wantScore: 0.71,
			wantExit:  true,
			sampled:   []string{"a", "b"},
		},
		{
			name:      "exactly 0.7 does not exit early",
			scores:    map[string]float64{"a": 0.7, "b": 0.69},
			wantKind:  types.DecisionExisting,
			wantDir:   "a",
			wantScore: 0.7,
			sampled:   []string{"a", "b"},
		},
		{
			name:     "acceptance floor is exclusive",
			scores:   map[string]float64{"a": 0.5, "b": 0.2},
			wantKind: types.DecisionNewBucket,
			sampled:  []string{"a", "b"},
		},
		{
			name:     "negative scores never accepted",
			scores:   map[string]float64{"a": -0.9},
			wantKind: types.DecisionNewBucket,
			sampled:  []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dirs []string
			for d := range tt.scores {
				dirs = append(dirs, d)
			}
			root, file := layout(t, dirs...)
			scorer := &dirScorer{scores: tt.scores}
			a := newTestAssigner(scorer)

			decision, err := a.DecideIn(file, root)
			require.NoError(t, err)

			assert.Equal(t, tt.wantKind, decision.Kind)
			assert.Equal(t, tt.wantExit, decision.EarlyExit)
			assert.Equal(t, tt.sampled, scorer.sampledDirs())
			if tt.wantKind == types.DecisionExisting {
				assert.Equal(t, filepath.Join(root, tt.wantDir), decision.Target)
				assert.Equal(t, tt.wantScore, decision.Score)
			} else {
				assert.Empty(t, decision.Target)
			}
			assert.FileExists(t, file, "decide must not move files")
		})
	}
}

func TestDecideSkipsEmptyAndMarkerOnlyDirectories(t *testing.T) {
	root, file := layout(t, "c")
	require.NoError(t, os.Mkdir(filepath.Join(root, "a"), 0o755))
	writeFile(t, filepath.Join(root, "b", ".DS_Store"))
	writeFile(t, filepath.Join(root, "b", "Thumbs.db"))

	scorer := &dirScorer{scores: map[string]float64{"a": 0.9, "b": 0.9, "c": 0.6}}
	decision, err := newTestAssigner(scorer).DecideIn(file, root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "c"), decision.Target)
	assert.Equal(t, 1, decision.Compared)
	assert.Equal(t, []string{"c"}, scorer.sampledDirs())
}

func TestDecideAllCandidatesIneligibleCreatesBucket(t *testing.T) {
	root, file := layout(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))
	writeFile(t, filepath.Join(root, "mac", ".DS_Store"))

	decision, err := newTestAssigner(&dirScorer{}).DecideIn(file, root)
	require.NoError(t, err)
	assert.Equal(t, types.DecisionNewBucket, decision.Kind)
	assert.Zero(t, decision.Compared)
}

func TestDecideSkipsCandidateWithDecodeError(t *testing.T) {
	root, file := layout(t, "cats", "dogs")
	scorer := &dirScorer{
		scores: map[string]float64{"cats": 0.62},
		errs: map[string]error{
			"dogs": types.NewDecodeError(filepath.Join(root, "dogs", "sample.jpg"), errors.New("truncated jpeg")),
		},
	}

	result, err := newTestAssigner(scorer).Assign(file, root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "cats"), result.Decision.Target)
	assert.Equal(t, 1, result.Decision.Compared)
	assert.FileExists(t, filepath.Join(root, "cats", "new.jpg"))
}

func TestDecideTargetDecodeErrorCreatesBucket(t *testing.T) {
	root, file := layout(t, "cats", "dogs")
	notAnImage := types.NewDecodeError(file, errors.New("not an image"))
	scorer := &dirScorer{errs: map[string]error{"cats": notAnImage, "dogs": notAnImage}}

	result, err := newTestAssigner(scorer, 0, 0, 234).Assign(file, root)
	require.NoError(t, err)

	assert.Equal(t, []string{"cats", "dogs"}, scorer.sampledDirs())
	assert.Equal(t, types.DecisionNewBucket, result.Decision.Kind)
	assert.Zero(t, result.Decision.Compared)
	assert.Equal(t, filepath.Join(root, "folder_1234", "new.jpg"), result.Destination)
	assert.FileExists(t, result.Destination)
	assert.NoFileExists(t, file)
}

func TestDecideModelUnavailableFailsFast(t *testing.T) {
	root, file := layout(t, "a", "b")
	unavailable := errors.Join(types.ErrModelUnavailable, errors.New("no weights"))
	scorer := &dirScorer{errs: map[string]error{"a": unavailable, "b": unavailable}}

	_, err := newTestAssigner(scorer).Assign(file, root)
	require.Error(t, err)
	assert.True(t, types.IsModelUnavailable(err))
	assert.Equal(t, []string{"a"}, scorer.sampledDirs())
	assert.FileExists(t, file)
}

func TestAssignCatsAndDogs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "cats", "cat.jpg"))
	writeFile(t, filepath.Join(root, "dogs", "dog.jpg"))
	file := filepath.Join(root, "new_cat.jpg")
	writeFile(t, file)

	scorer := &dirScorer{scores: map[string]float64{"cats": 0.68, "dogs": 0.41}}
	result, err := newTestAssigner(scorer).Assign(file, root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "cats", "new_cat.jpg"), result.Destination)
	assert.FileExists(t, result.Destination)
}

func TestApplyDryRunDoesNotTouchFilesystem(t *testing.T) {
	root, file := layout(t)
	a := newTestAssigner(&dirScorer{}, 1)

	decision, err := a.DecideIn(file, root)
	require.NoError(t, err)

	result, err := a.Apply(decision, true)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, filepath.Join(root, "folder_1001", "new.jpg"), result.Destination)
	assert.NoDirExists(t, filepath.Join(root, "folder_1001"))
	assert.FileExists(t, file)
}

func TestNewBucketAvoidsExistingNames(t *testing.T) {
	root, file := layout(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "folder_1234"), 0o755))
	a := newTestAssigner(&dirScorer{}, 234, 500)

	result, err := a.Apply(types.Decision{File: file, Parent: root, Kind: types.DecisionNewBucket}, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "folder_1500", "new.jpg"), result.Destination)
}

// failingMoveFS refuses to move one file
type failingMoveFS struct {
	*fsops.OS
	fail string
}

func (f failingMoveFS) Move(src, dstDir string) (string, error) {
	if src == f.fail {
		return "", errors.New("disk full")
	}
	return f.OS.Move(src, dstDir)
}

func TestApplyRemovesNewBucketWhenMoveFails(t *testing.T) {
	root, file := layout(t)
	fsys := failingMoveFS{OS: fsops.New(), fail: file}
	a := NewAssigner(fsys, &dirScorer{}, WithRandomSource(&seqRandom{values: []int{234}}))

	_, err := a.Assign(file, root)
	require.Error(t, err)
	assert.FileExists(t, file)
	assert.NoDirExists(t, filepath.Join(root, "folder_1234"))

	candidates, err := a.Candidates(root)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestApplyRejectsZeroDecision(t *testing.T) {
	root, file := layout(t, "cats")
	var decision types.Decision
	assert.Equal(t, types.DecisionUnknown, decision.Kind)

	decision.File = file
	decision.Parent = root
	_, err := newTestAssigner(&dirScorer{}).Apply(decision, false)
	require.Error(t, err)
	assert.FileExists(t, file)
}

func TestAssignErrorCarriesNoDecision(t *testing.T) {
	root, file := layout(t, "a")
	scorer := &dirScorer{errs: map[string]error{"a": types.ErrModelUnavailable}}

	result, err := newTestAssigner(scorer).Assign(file, root)
	require.Error(t, err)
	assert.Equal(t, types.DecisionUnknown, result.Decision.Kind)
	assert.Equal(t, "unknown", result.Decision.Kind.String())

	decision, err := newTestAssigner(scorer).DecideIn(file, root)
	require.Error(t, err)
	assert.Equal(t, types.DecisionUnknown, decision.Kind)
}

func TestFolderPrefixOption(t *testing.T) {
	root, file := layout(t)
	a := NewAssigner(fsops.New(), &dirScorer{}, WithRandomSource(&seqRandom{values: []int{0}}), WithFolderPrefix("group_"))

	result, err := a.Assign(file, root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "group_1000", "new.jpg"), result.Destination)
}

func TestSampleIsUniformOverEligibleFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".DS_Store"))
	writeFile(t, filepath.Join(dir, "a.jpg"))
	writeFile(t, filepath.Join(dir, "b.jpg"))
	writeFile(t, filepath.Join(dir, "c.jpg"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	a := newTestAssigner(&dirScorer{}, 0, 1, 2, 3)
	var picked []string
	for i := 0; i < 4; i++ {
		sample, ok, err := a.Sample(dir)
		require.NoError(t, err)
		require.True(t, ok)
		picked = append(picked, filepath.Base(sample))
	}
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg", "a.jpg"}, picked)
}

func TestCandidatesAreFreshEachCall(t *testing.T) {
	root, _ := layout(t, "a")
	a := newTestAssigner(&dirScorer{})

	first, err := a.Candidates(root)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	require.NoError(t, os.Mkdir(filepath.Join(root, "b"), 0o755))
	second, err := a.Candidates(root)
	require.NoError(t, err)
	assert.Len(t, second, 2)
}
