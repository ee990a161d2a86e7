package manifest

const flatCatalog = `
[Unity]
title=Unity 2018.2.0f2
description=Unity Editor
url=MacEditorInstaller/Unity-2018.2.0f2.pkg
install=true
mandatory=false
size=1048576
installedsize=2097152
md5=9e107d9d372bb6826bd81d3542a419d6

[Android]
title=Android Build Support
description=Allows building your Unity projects for the Android platform
url=MacEditorTargetInstaller/UnitySetup-Android-Support-for-Editor-2018.2.0f2.pkg
install=false
size=300000
installedsize=600000
md5=e4d909c290d0fb1ca068ffaddf22cbd0
eulamessage=Please review the terms

[Android-Sdk-Ndk-Tools]
title=Android SDK & NDK Tools
url=https://dl.google.com/android/repository/sdk-tools-darwin-4333796.zip
size=100
installedsize=200
sync=Android
hidden=true
rename_from={UNITY_PATH}/PlaybackEngines/AndroidPlayer/SDK/tools-temp
rename_to={UNITY_PATH}/PlaybackEngines/AndroidPlayer/SDK/tools

[Quantum-Support]
title=Future platform
url=MacEditorTargetInstaller/Quantum.pkg
`

const releaseCatalog = `{
  "version": "2021.3.5f1",
  "revision": "40eb3a945986",
  "platforms": [
    {
      "platform": "mac",
      "arch": "x86_64",
      "editor": {
        "downloadUrl": "https://download.example.com/40eb3a945986/MacEditorInstaller/Unity-2021.3.5f1.pkg",
        "downloadSize": 2000000000,
        "installedSize": "5000000000",
        "checksum": "md5:9e107d9d372bb6826bd81d3542a419d6"
      },
      "modules": [
        {
          "id": "android",
          "name": "Android Build Support",
          "category": "Platforms",
          "downloadUrl": "https://download.example.com/40eb3a945986/MacEditorTargetInstaller/UnitySetup-Android-Support-for-Editor-2021.3.5f1.pkg",
          "destination": "{UNITY_PATH}/PlaybackEngines/AndroidPlayer",
          "visible": true,
          "selected": false,
          "eula": {"url": "https://example.com/eula"},
          "subModules": [
            {
              "id": "android-open-jdk",
              "name": "OpenJDK",
              "downloadUrl": "https://download.example.com/jdk.zip",
              "destination": "{UNITY_PATH}/PlaybackEngines/AndroidPlayer/OpenJDK",
              "hidden": true,
              "subModules": [
                {
                  "id": "android-ndk",
                  "name": "Android NDK r21d",
                  "downloadUrl": "https://dl.google.com/android/repository/android-ndk-r21d-darwin-x86_64.zip",
                  "extractedPathRename": {
                    "from": "{UNITY_PATH}/PlaybackEngines/AndroidPlayer/NDK/android-ndk-r21d",
                    "to": "{UNITY_PATH}/PlaybackEngines/AndroidPlayer/NDK"
                  }
                }
              ]
            }
          ]
        },
        {
          "id": "ios",
          "name": "iOS Build Support",
          "downloadUrl": "https://download.example.com/ios.pkg",
          "checksum": "sha384-OLBgp1GsljhM2TJ+sbHjaiH9txEUvgdDTAzHv2P24donTt6/529l+9Ua0vFImLlb"
        }
      ]
    },
    {
      "platform": "mac",
      "arch": "arm64",
      "editor": {
        "downloadUrl": "https://download.example.com/40eb3a945986/MacEditorInstallerArm64/Unity-2021.3.5f1.pkg"
      },
      "modules": []
    },
    {
      "platform": "linux",
      "editor": {
        "downloadUrl": "https://download.example.com/40eb3a945986/LinuxEditorInstaller/Unity.tar.xz"
      },
      "modules": []
    }
  ]
}`
