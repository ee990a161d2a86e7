package manifest

import (
	"slices"
	"strings"

	"github.com/matzehuels/uvm/pkg/errors"
)

// ComponentID identifies an installable module.
//
// Known identifiers are declared as constants below. Any other string is
// still a valid ComponentID: catalogs gain new modules faster than tools
// learn about them, so an unknown identifier is carried through parsing,
// the install graph and the installed-module record unchanged, and treated
// as a leaf with no dependents of its own.
type ComponentID string

// Known components.
const (
	Editor          ComponentID = "editor"
	Mono            ComponentID = "mono"
	VisualStudio    ComponentID = "visualstudio"
	MonoDevelop     ComponentID = "monodevelop"
	Documentation   ComponentID = "documentation"
	StandardAssets  ComponentID = "standardassets"
	ExampleProjects ComponentID = "example"

	Android                 ComponentID = "android"
	AndroidSDKNDKTools      ComponentID = "android-sdk-ndk-tools"
	AndroidSDKPlatforms     ComponentID = "android-sdk-platforms"
	AndroidSDKPlatformTools ComponentID = "android-sdk-platform-tools"
	AndroidSDKBuildTools    ComponentID = "android-sdk-build-tools"
	AndroidNDK              ComponentID = "android-ndk"
	AndroidOpenJDK          ComponentID = "android-open-jdk"

	IOS      ComponentID = "ios"
	AppleTV  ComponentID = "appletv"
	VisionOS ComponentID = "visionos"

	Linux         ComponentID = "linux"
	LinuxMono     ComponentID = "linux-mono"
	LinuxIL2CPP   ComponentID = "linux-il2cpp"
	LinuxServer   ComponentID = "linux-server"
	Mac           ComponentID = "mac"
	MacMono       ComponentID = "mac-mono"
	MacIL2CPP     ComponentID = "mac-il2cpp"
	MacServer     ComponentID = "mac-server"
	Windows       ComponentID = "windows"
	WindowsMono   ComponentID = "windows-mono"
	WindowsIL2CPP ComponentID = "windows-il2cpp"
	WindowsServer ComponentID = "windows-server"

	WebGL                    ComponentID = "webgl"
	Lumin                    ComponentID = "lumin"
	FacebookGames            ComponentID = "facebook-games"
	UniversalWindowsPlatform ComponentID = "universal-windows-platform"
	UWPIL2CPP                ComponentID = "uwp-il2cpp"
	UWPDotNet                ComponentID = "uwp-.net"

	LanguageJa     ComponentID = "language-ja"
	LanguageKo     ComponentID = "language-ko"
	LanguageZhHans ComponentID = "language-zh-hans"
	LanguageZhHant ComponentID = "language-zh-hant"
	LanguageFr     ComponentID = "language-fr"
	LanguageEs     ComponentID = "language-es"
	LanguageDe     ComponentID = "language-de"
	LanguageRu     ComponentID = "language-ru"
	LanguagePtBr   ComponentID = "language-pt-br"
)

var known = map[ComponentID]struct{}{}

func init() {
	for _, id := range []ComponentID{
		Editor, Mono, VisualStudio, MonoDevelop, Documentation, StandardAssets, ExampleProjects,
		Android, AndroidSDKNDKTools, AndroidSDKPlatforms, AndroidSDKPlatformTools,
		AndroidSDKBuildTools, AndroidNDK, AndroidOpenJDK,
		IOS, AppleTV, VisionOS,
		Linux, LinuxMono, LinuxIL2CPP, LinuxServer,
		Mac, MacMono, MacIL2CPP, MacServer,
		Windows, WindowsMono, WindowsIL2CPP, WindowsServer,
		WebGL, Lumin, FacebookGames, UniversalWindowsPlatform, UWPIL2CPP, UWPDotNet,
		LanguageJa, LanguageKo, LanguageZhHans, LanguageZhHant,
		LanguageFr, LanguageEs, LanguageDe, LanguageRu, LanguagePtBr,
	} {
		known[id] = struct{}{}
	}
}

// aliases maps historical catalog names onto known identifiers.
var aliases = map[string]ComponentID{
	"unity":          Editor,
	"unity-editor":   Editor,
	"unityeditor":    Editor,
	"windows-store":  UniversalWindowsPlatform,
	"metro":          UniversalWindowsPlatform,
	"uwp":            UniversalWindowsPlatform,
	"tvos":           AppleTV,
	"android-jdk":    AndroidOpenJDK,
	"language-zh-cn": LanguageZhHans,
}

// ParseComponentID normalizes s (case, surrounding space, known aliases)
// and validates that it is usable as a path segment. Unknown identifiers
// are accepted.
func ParseComponentID(s string) (ComponentID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if alias, ok := aliases[s]; ok {
		return alias, nil
	}
	if err := errors.ValidateComponentID(s); err != nil {
		return "", err
	}
	return ComponentID(s), nil
}

// IsKnown reports whether id is one of the declared components.
func (id ComponentID) IsKnown() bool {
	_, ok := known[id]
	return ok
}

// IsEditor reports whether id is the base editor.
func (id ComponentID) IsEditor() bool { return id == Editor }

// IsLanguagePack reports whether id names a localization pack.
func (id ComponentID) IsLanguagePack() bool {
	return strings.HasPrefix(string(id), "language-")
}

func (id ComponentID) String() string { return string(id) }

// KnownComponents returns all declared components, sorted.
func KnownComponents() []ComponentID {
	ids := make([]ComponentID, 0, len(known))
	for id := range known {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ComponentSet is an unordered set of component identifiers.
type ComponentSet map[ComponentID]struct{}

// NewComponentSet returns a set holding ids.
func NewComponentSet(ids ...ComponentID) ComponentSet {
	s := make(ComponentSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set. A nil set is empty.
func (s ComponentSet) Has(id ComponentID) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id.
func (s ComponentSet) Add(id ComponentID) { s[id] = struct{}{} }

// Sorted returns the members in lexicographic order.
func (s ComponentSet) Sorted() []ComponentID {
	ids := make([]ComponentID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
