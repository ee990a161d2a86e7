package manifest

import "strings"

// playbackEngines maps platform support modules to their directory under
// PlaybackEngines.
var playbackEngines = map[ComponentID]string{
	Android:                  "AndroidPlayer",
	IOS:                      "iOSSupport",
	AppleTV:                  "AppleTVSupport",
	VisionOS:                 "VisionOSPlayer",
	Linux:                    "LinuxStandaloneSupport",
	LinuxMono:                "LinuxStandaloneSupport",
	LinuxIL2CPP:              "LinuxStandaloneSupport",
	LinuxServer:              "LinuxStandaloneSupport",
	Mac:                      "MacStandaloneSupport",
	MacMono:                  "MacStandaloneSupport",
	MacIL2CPP:                "MacStandaloneSupport",
	MacServer:                "MacStandaloneSupport",
	Windows:                  "WindowsStandaloneSupport",
	WindowsMono:              "WindowsStandaloneSupport",
	WindowsIL2CPP:            "WindowsStandaloneSupport",
	WindowsServer:            "WindowsStandaloneSupport",
	WebGL:                    "WebGLSupport",
	Lumin:                    "LuminSupport",
	FacebookGames:            "Facebook",
	UniversalWindowsPlatform: "MetroSupport",
	UWPIL2CPP:                "MetroSupport",
	UWPDotNet:                "MetroSupport",
}

// androidTools maps Android toolchain modules to their directory under the
// Android player.
var androidTools = map[ComponentID]string{
	AndroidSDKNDKTools:      "SDK",
	AndroidSDKPlatforms:     "SDK/platforms",
	AndroidSDKPlatformTools: "SDK",
	AndroidSDKBuildTools:    "SDK/build-tools",
	AndroidNDK:              "NDK",
	AndroidOpenJDK:          "OpenJDK",
}

// editorDataDir is the directory holding the editor's data files relative
// to the installation root.
func editorDataDir(p Platform) string {
	if p == MacOS {
		return "Unity.app/Contents"
	}
	return "Editor/Data"
}

// playbackEnginesDir is the directory holding platform support modules.
func playbackEnginesDir(p Platform) string {
	if p == MacOS {
		return BasePathPlaceholder + "/PlaybackEngines"
	}
	return BasePathPlaceholder + "/" + editorDataDir(p) + "/PlaybackEngines"
}

// DefaultDestination is the destination used when a flat catalog does not
// state one. It returns "" for modules installed at the root.
func DefaultDestination(id ComponentID, p Platform) string {
	if dir, ok := playbackEngines[id]; ok {
		return playbackEnginesDir(p) + "/" + dir
	}
	if dir, ok := androidTools[id]; ok {
		return playbackEnginesDir(p) + "/" + playbackEngines[Android] + "/" + dir
	}
	if id.IsLanguagePack() {
		return LocalizationDir(p)
	}
	switch id {
	case StandardAssets:
		return BasePathPlaceholder + "/" + editorDataDir(p) + "/Standard Assets"
	}
	return ""
}

// LocalizationDir is where language packs are copied.
func LocalizationDir(p Platform) string {
	return BasePathPlaceholder + "/" + editorDataDir(p) + "/Localization"
}

// IsPlaybackEngine reports whether dest points into a PlaybackEngines
// directory, i.e. the module is a platform support module.
func IsPlaybackEngine(dest string) bool {
	return strings.Contains(normalizePlaceholder(dest), "/PlaybackEngines/")
}
